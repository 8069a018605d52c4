package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketBurst(t *testing.T) {
	bucket := newTokenBucket(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, bucket.take(), "take %d within burst", i)
	}
	assert.False(t, bucket.take(), "bucket must be empty after the burst")
}

func TestTokenBucketRefills(t *testing.T) {
	bucket := newTokenBucket(2, 100*time.Millisecond)

	assert.True(t, bucket.take())
	assert.True(t, bucket.take())
	assert.False(t, bucket.take())

	// A full refill interval restores the burst.
	time.Sleep(150 * time.Millisecond)
	assert.True(t, bucket.take())
	assert.True(t, bucket.take())
	assert.False(t, bucket.take())
}

func TestTokenBucketCapsAtCapacity(t *testing.T) {
	bucket := newTokenBucket(2, 50*time.Millisecond)

	// Idle well past several refill intervals; the bucket must not bank
	// more than its capacity.
	time.Sleep(200 * time.Millisecond)
	assert.True(t, bucket.take())
	assert.True(t, bucket.take())
	assert.False(t, bucket.take())
}

func TestTokenBucketClampsInvalidParameters(t *testing.T) {
	bucket := newTokenBucket(0, 0)

	assert.True(t, bucket.take(), "clamped bucket still admits one message")
	assert.False(t, bucket.take())
}
