package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imsgen/internal/models"
)

func newTestStore(t *testing.T) (*ProfileStore, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")
	return NewProfileStore(path, filepath.Join(dir, "scripts"), nil), path
}

func TestProfileLoadMissingWritesDefaults(t *testing.T) {
	store, path := newTestStore(t)

	p, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, store.Defaults(), p)
	assert.Equal(t, "dra.ims.sdt", p.Domain)
	assert.Equal(t, "+861088889001", p.LastStartNumber)
	assert.Equal(t, 10, p.LastCount)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, "scscfpool01", onDisk["scscf"])
	assert.Equal(t, float64(10), onDisk["last_count"])
}

func TestProfileSaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	want := store.Defaults()
	want.Domain = "ims.example.com"
	want.LastStartNumber = "+8613800000000"
	want.LastCount = 250
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestProfileLoadFillsMissingKeys(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"domain": "ims.example.com", "last_count": 3}`), 0o644))

	p, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ims.example.com", p.Domain)
	assert.Equal(t, 3, p.LastCount)
	assert.Equal(t, "cg.dra.ims.sdt", p.CFN)
	assert.Equal(t, "86", p.CC)
}

func TestProfileLoadCorruptReturnsDefaults(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"domain": `), 0o644))

	p, err := store.Load()
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindFormat))
	assert.Equal(t, store.Defaults(), p)
}

func TestProfileSaveUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	store := NewProfileStore(filepath.Join(blocker, "config.json"), dir, nil)
	err := store.Save(store.Defaults())
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindIO))
}

func TestProfileLoadUnreadablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// 上層是一般檔案，開檔失敗而不是內容損壞
	store := NewProfileStore(filepath.Join(blocker, "config.json"), dir, nil)
	p, err := store.Load()
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindIO))
	assert.False(t, models.IsKind(err, models.KindFormat))
	assert.Equal(t, store.Defaults(), p)
}

func TestProfileLoadMissingUncreatableDir(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "dangling")
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone", "target"), link))

	// 檔案不存在且無法建立目錄：回傳預設值與 I/O 錯誤
	store := NewProfileStore(filepath.Join(link, "config.json"), dir, nil)
	p, err := store.Load()
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindIO))
	assert.Equal(t, store.Defaults(), p)
}

func TestProfileParamsRoundTrip(t *testing.T) {
	p := DefaultProfile("/tmp")
	params := p.Params()
	assert.Equal(t, "100", params.SIFCID)

	params.SCSCF = "scscf02"
	updated := p.WithParams(params)
	assert.Equal(t, "scscf02", updated.SCSCF)
	assert.Equal(t, p.LastStartNumber, updated.LastStartNumber)
}

func TestProfileConcurrentSaves(t *testing.T) {
	store, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p := store.Defaults()
			p.LastCount = n
			assert.NoError(t, store.Save(p))
		}(i)
	}
	wg.Wait()

	p, err := store.Load()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.LastCount, 1)
	assert.LessOrEqual(t, p.LastCount, 8)
}
