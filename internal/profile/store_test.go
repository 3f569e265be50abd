package profile

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/mixlauncher/internal/layout"
	"github.com/handiism/mixlauncher/internal/model"
)

func TestStore_CreateAndReload(t *testing.T) {
	l := layout.New(t.TempDir())
	s, err := Open(l)
	require.NoError(t, err)
	assert.Empty(t, s.List())

	p, err := s.Create("Survival: Modded", "1.20.1", model.LoaderFabric)
	require.NoError(t, err)
	assert.Equal(t, "Survival: Modded", p.Name)
	assert.Equal(t, l.ProfileModsDir("Survival_ Modded"), p.ModsPath)
	assert.DirExists(t, p.ModsPath)

	_, err = s.Create("Vanilla", "1.19.4", model.LoaderVanilla)
	require.NoError(t, err)

	reopened, err := Open(l)
	require.NoError(t, err)
	assert.Equal(t, s.List(), reopened.List())

	got, ok := reopened.Get("Survival: Modded")
	require.True(t, ok)
	assert.Equal(t, model.LoaderFabric, got.Loader)
}

func TestStore_Duplicate(t *testing.T) {
	s, err := Open(layout.New(t.TempDir()))
	require.NoError(t, err)

	_, err = s.Create("pack", "1.20.1", model.LoaderQuilt)
	require.NoError(t, err)
	_, err = s.Create(" pack ", "1.20.1", model.LoaderQuilt)
	assert.ErrorIs(t, err, ErrProfileExists)
	assert.Len(t, s.List(), 1)

	_, err = s.Create("...", "1.20.1", model.LoaderQuilt)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestStore_ModsPathFallback(t *testing.T) {
	l := layout.New(t.TempDir())
	s, err := Open(l)
	require.NoError(t, err)
	p, err := s.Create("pack", "1.20.1", model.LoaderForge)
	require.NoError(t, err)

	assert.Equal(t, p.ModsPath, s.ModsPath("pack"))
	assert.Equal(t, l.DefaultModsDir(), s.ModsPath(""))
	assert.Equal(t, l.DefaultModsDir(), s.ModsPath("unknown"))
}

func TestStore_DeleteKeepsFiles(t *testing.T) {
	l := layout.New(t.TempDir())
	s, err := Open(l)
	require.NoError(t, err)
	p, err := s.Create("pack", "1.20.1", model.LoaderFabric)
	require.NoError(t, err)

	require.NoError(t, s.Delete("pack"))
	assert.Empty(t, s.List())
	assert.DirExists(t, p.ModsPath)
	assert.ErrorIs(t, s.Delete("pack"), ErrProfileNotFound)

	reopened, err := Open(l)
	require.NoError(t, err)
	assert.Empty(t, reopened.List())
}

func TestOpen_Corrupt(t *testing.T) {
	l := layout.New(t.TempDir())
	require.NoError(t, os.WriteFile(l.ProfilesFile(), []byte("{not json"), 0644))

	_, err := Open(l)
	assert.Error(t, err)
}
