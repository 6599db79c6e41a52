package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, sync, err := newLogger(&buf, "json")
		require.NoError(t, err)

		logger.Info("mapping file", "path", "a/b.txt", "size", 3)
		logger.Debug("hidden")
		require.NoError(t, sync())

		out := buf.String()
		assert.Contains(t, out, `"msg":"mapping file"`)
		assert.Contains(t, out, `"path":"a/b.txt"`)
		assert.Contains(t, out, `"size":3`)
		assert.NotContains(t, out, "hidden")
	})

	t.Run("console", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, _, err := newLogger(&buf, "console")
		require.NoError(t, err)

		logger.Warn("cannot read file, storing it empty", "path", "x")
		assert.Contains(t, buf.String(), "cannot read file, storing it empty")
		assert.Contains(t, buf.String(), `"path": "x"`)
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		_, _, err := newLogger(&bytes.Buffer{}, "xml")
		require.Error(t, err)
	})
}
