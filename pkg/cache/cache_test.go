package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Value string `json:"value"`
}

func TestCache_PutThenGetRoundTrips(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put("file-1", payload{Value: "hello"}))

	var out payload
	found, err := c.Get("file-1", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hello", out.Value)
}

func TestCache_GetMissingKeyIsNotFoundNotError(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	var out payload
	found, err := c.Get("does-not-exist", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_CorruptEntryIsTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, c.Put("file-1", payload{Value: "hello"}))
	require.NoError(t, c.Put("file-1", "not-an-object-but-still-valid-json"))

	var out payload
	found, err := c.Get("file-1", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, out.Value)
}

func TestCache_RejectsUnsafeFileID(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	err = c.Put("../escape", payload{Value: "x"})
	require.Error(t, err)
}

func TestCache_DeleteRemovesEntry(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put("file-1", payload{Value: "hello"}))
	require.NoError(t, c.Delete("file-1"))

	var out payload
	found, err := c.Get("file-1", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
