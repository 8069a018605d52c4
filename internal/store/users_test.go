package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestUserJSONNeverExposesPasswordHash(t *testing.T) {
	user := User{
		ID:           primitive.NewObjectID(),
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$secretsecretsecret",
		CreatedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, user.ID.Hex(), decoded["id"])
	assert.Equal(t, "Ada", decoded["name"])
	assert.Equal(t, "ada@example.com", decoded["email"])
}

func TestDuplicateKeyDetection(t *testing.T) {
	// The Create path maps this driver error to ErrDuplicateEmail.
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	require.True(t, mongo.IsDuplicateKeyError(dup))

	other := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 2}}}
	assert.False(t, mongo.IsDuplicateKeyError(other))
}
