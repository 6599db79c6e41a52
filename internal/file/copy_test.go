package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyWithContext(t *testing.T) {
	t.Parallel()

	src := strings.Repeat("0123456789", 10_000)
	var dst bytes.Buffer
	n, err := CopyWithContext(context.Background(), &dst, strings.NewReader(src), make([]byte, 7))
	require.NoError(t, err)
	assert.Equal(t, uint64(len(src)), n)
	assert.Equal(t, src, dst.String())
}

func TestCopyWithContext_DefaultBuffer(t *testing.T) {
	t.Parallel()

	var dst bytes.Buffer
	n, err := CopyWithContext(context.Background(), &dst, strings.NewReader("abc"), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	assert.Equal(t, "abc", dst.String())
}

func TestCopyWithContext_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := CopyWithContext(ctx, io.Discard, strings.NewReader("abc"), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestCopyWithContext_ReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := CopyWithContext(context.Background(), io.Discard, failingReader{boom}, nil)
	require.ErrorIs(t, err, boom)
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestCopyWithContext_ShortWrite(t *testing.T) {
	t.Parallel()

	_, err := CopyWithContext(context.Background(), shortWriter{}, strings.NewReader("abcd"), nil)
	require.ErrorIs(t, err, io.ErrShortWrite)
}

func TestCountingWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cw := &CountingWriter{W: &buf}
	_, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	_, err = cw.Write([]byte(" world"))
	require.NoError(t, err)

	assert.Equal(t, uint64(11), cw.N)
	assert.Equal(t, "hello world", buf.String())
}
