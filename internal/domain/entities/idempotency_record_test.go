package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIdempotencyRecord_DefaultRetention(t *testing.T) {
	r := NewIdempotencyRecord("r1", 201, []byte(`{"ok":true}`))
	assert.True(t, r.Live(time.Now()))
	assert.False(t, r.Live(r.ExpiresAt().Add(time.Second)))
	assert.Equal(t, DefaultRetention, r.ExpiresAt().Sub(r.CreatedAt()))
}

func TestIdempotencyRecord_Live_ExpiredIgnored(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	r := ReconstructIdempotencyRecord("r2", 200, nil, past, past.Add(24*time.Hour))
	assert.False(t, r.Live(time.Now()))
}

func TestNewIdempotencyRecordWithRetention_Custom(t *testing.T) {
	r := NewIdempotencyRecordWithRetention("r3", 201, []byte(`{"ok":true}`), time.Hour)
	assert.Equal(t, time.Hour, r.ExpiresAt().Sub(r.CreatedAt()))
}
