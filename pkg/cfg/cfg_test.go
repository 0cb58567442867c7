package cfg

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, content string) string {
		path := filepath.Join(t.TempDir(), "cfg.toml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		c, err := New(write(t, "types = [[\"planar\"]]\nfiles = [[\"planar.toml\"]]\n"))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"planar"}}, c.Types)
		assert.Equal(t, [][]string{{"planar.toml"}}, c.Files)
	})

	t.Run("length mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := New(write(t, "types = [[\"planar\"]]\nfiles = []\n"))
		require.Error(t, err)
	})

	t.Run("inner length mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := New(write(t, "types = [[\"planar\", \"ionpot\"]]\nfiles = [[\"planar.toml\"]]\n"))
		require.Error(t, err)
	})
}

func TestLaunch_Unknown(t *testing.T) {
	t.Parallel()

	err := Launch("msd", "whatever.toml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doesn't exist")
}

func TestStart_LogsFailures(t *testing.T) {
	t.Parallel()

	c := Cfg{
		Types: [][]string{{"nope", "nope2"}},
		Files: [][]string{{"nope.toml", "nope2.toml"}},
	}
	var buf bytes.Buffer
	l := log.New(&buf, "", 0)

	c.Start(l)
	assert.Contains(t, buf.String(), "routine 0")
	assert.Contains(t, buf.String(), "routine 1")
	assert.Contains(t, buf.String(), "doesn't exist")
}
