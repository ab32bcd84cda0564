package extension_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavisham/lobbygate/internal/extension"
)

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "slots.lua"), []byte(`-- slots`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lottery.lua"), []byte(`-- lottery`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`skip me`), 0o644))

	lib, err := extension.LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 2, lib.Len())
	assert.Equal(t, []string{"lottery", "slots"}, lib.Names())

	source, ok := lib.Source("slots")
	assert.True(t, ok)
	assert.Equal(t, "-- slots", source)

	_, ok = lib.Source("notes")
	assert.False(t, ok)
}

func TestLoadDirMissing(t *testing.T) {
	lib, err := extension.LoadDir(filepath.Join(t.TempDir(), "nowhere"))
	require.NoError(t, err)
	assert.Equal(t, 0, lib.Len())
}
