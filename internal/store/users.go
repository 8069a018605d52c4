// Package store persists user records in MongoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound reports a lookup that matched no user.
	ErrNotFound = errors.New("store: user not found")

	// ErrDuplicateEmail reports a Create whose email is already registered.
	ErrDuplicateEmail = errors.New("store: email already registered")
)

// User is a registered account. The bcrypt hash is stored under the
// `password` field the original deployment used; it never serializes to
// JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// Users provides access to the users collection.
type Users struct {
	col *mongo.Collection
}

// NewUsers returns a DAO over db's users collection.
func NewUsers(db *mongo.Database) *Users {
	return &Users{col: db.Collection("users")}
}

// EnsureIndexes creates the unique email index. Safe to call on every
// startup.
func (u *Users) EnsureIndexes(ctx context.Context) error {
	_, err := u.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating users email index: %w", err)
	}
	return nil
}

// Create inserts user and returns it with its assigned ID. A user whose
// email is already registered fails with ErrDuplicateEmail.
func (u *Users) Create(ctx context.Context, user User) (User, error) {
	user.CreatedAt = time.Now().UTC()

	res, err := u.col.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("inserting user: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return user, nil
}

// FindByEmail returns the user registered under email, or ErrNotFound.
func (u *Users) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := u.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("finding user by email: %w", err)
	}
	return user, nil
}

// List returns all users, newest first.
func (u *Users) List(ctx context.Context) ([]User, error) {
	cursor, err := u.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}
	return users, nil
}
