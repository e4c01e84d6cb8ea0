package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Keys []string
}

func TestLRUStoreRoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewLRUStore(8, time.Minute)

	in := record{ID: "s-1", Keys: []string{"students/r1/1.jpg"}}
	require.NoError(t, s.Set(ctx, "student:s-1", in))
	in.Keys[0] = "mutated"

	var out record
	hit, err := s.Get(ctx, "student:s-1", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "students/r1/1.jpg", out.Keys[0])

	require.NoError(t, s.Delete(ctx, "student:s-1", "missing"))
	hit, err = s.Get(ctx, "student:s-1", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestLRUStoreExpires(t *testing.T) {
	ctx := context.Background()
	s := NewLRUStore(8, 10*time.Millisecond)
	require.NoError(t, s.Set(ctx, "k", record{ID: "1"}))
	time.Sleep(40 * time.Millisecond)

	var out record
	hit, err := s.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	require.NoError(t, s.Set(context.Background(), "k", 1))
	hit, err := s.Get(context.Background(), "k", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
}
