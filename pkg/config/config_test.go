package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", FileName)

	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfig_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `
[settings]
match_color = "#00ff00"

[vault]
extensions = [".md", ".markdown"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", cfg.Settings.MatchColor)
	assert.Equal(t, []string{".md", ".markdown"}, cfg.Vault.Extensions)
	assert.Equal(t, DefaultConfig().Server, cfg.Server)
	assert.True(t, cfg.Vault.Watch)
}

func TestLoadConfig_PartialRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	// max_limit has the wrong type, which fails the struct decode.
	content := `
[settings]
match_color = "blue"

[server]
max_limit = "lots"
default_limit = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "blue", cfg.Settings.MatchColor)
	assert.Equal(t, 5, cfg.Server.DefaultLimit)
	assert.Equal(t, DefaultConfig().Server.MaxLimit, cfg.Server.MaxLimit)
}

func TestLoadConfig_Unparsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[[[ not toml"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_InvalidColorFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[settings]\nmatch_color = \"\"\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultMatchColor, cfg.Settings.MatchColor)
}

func TestLoadConfigWithPriority_CustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")

	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, DefaultMatchColor, cfg.Settings.MatchColor)
	assert.FileExists(t, path)
}

func TestStore_SetMatchColorPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg, err := InitConfig(path)
	require.NoError(t, err)

	store := NewStore(cfg, path)
	assert.Equal(t, DefaultMatchColor, store.MatchColor())

	require.NoError(t, store.SetMatchColor("  #123456 "))
	assert.Equal(t, "#123456", store.MatchColor())

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "#123456", reloaded.Settings.MatchColor)
}

func TestStore_SetMatchColorRejectsInvalid(t *testing.T) {
	store := NewStore(nil, "")
	for _, c := range []string{"", "  ", `x"><b>`} {
		err := store.SetMatchColor(c)
		assert.True(t, errors.Is(err, ErrInvalidColor), "color %q", c)
	}
	assert.Equal(t, DefaultMatchColor, store.MatchColor())
}

func TestStore_Limit(t *testing.T) {
	store := NewStore(nil, "")
	assert.Equal(t, 20, store.Limit(0))
	assert.Equal(t, 7, store.Limit(7))
	assert.Equal(t, 64, store.Limit(1000))
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	store := NewStore(nil, "")
	snap := store.Snapshot()
	snap.Vault.Extensions[0] = ".txt"
	snap.Settings.MatchColor = "blue"
	assert.Equal(t, ".md", store.Snapshot().Vault.Extensions[0])
	assert.Equal(t, DefaultMatchColor, store.MatchColor())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore(nil, "")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.SetMatchColor("#abcdef")
		}()
		go func() {
			defer wg.Done()
			_ = store.MatchColor()
		}()
	}
	wg.Wait()
	assert.Equal(t, "#abcdef", store.MatchColor())
}
