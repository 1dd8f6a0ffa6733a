package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailLines_ReturnsLastNLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\nfour\nfive\n"), 0o644))

	lines, err := TailLines(path, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "four", "five"}, lines)
}

func TestTailLines_MissingFileReturnsEmptyNotError(t *testing.T) {
	lines, err := TailLines(filepath.Join(t.TempDir(), "missing.log"), 10)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFollowLines_StreamsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan string, 10)
	go func() {
		_ = FollowLines(ctx, path, out)
	}()

	time.Sleep(50 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("new line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case line := <-out:
		assert.Equal(t, "new line", line)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for followed line")
	}
}
