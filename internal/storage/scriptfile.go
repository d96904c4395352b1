package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"imsgen/internal/models"
)

const (
	filePrefix = "ims_script_"
	fileExt    = ".txt"
	timeLayout = "20060102_150405"
)

// ScriptStore 把放號腳本寫成 UTF-8 文字檔
type ScriptStore struct {
	dir string
	now func() time.Time
}

type Option func(*ScriptStore)

// WithNow 替換時鐘，測試用
func WithNow(now func() time.Time) Option {
	return func(s *ScriptStore) { s.now = now }
}

// NewScriptStore dir 為未指定路徑時的輸出目錄
func NewScriptStore(dir string, opts ...Option) *ScriptStore {
	s := &ScriptStore{
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultFileName 以目前時間產生 ims_script_YYYYMMDD_HHMMSS.txt
func (s *ScriptStore) DefaultFileName() string {
	return filePrefix + s.now().Format(timeLayout) + fileExt
}

// Resolve 決定實際寫入的路徑：空路徑寫到預設目錄，既有目錄內自動命名
func (s *ScriptStore) Resolve(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return filepath.Join(s.dir, s.DefaultFileName())
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, s.DefaultFileName())
	}
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return filepath.Join(path, s.DefaultFileName())
	}
	return path
}

// Save 寫入腳本並回傳實際路徑，必要時建立上層目錄
func (s *ScriptStore) Save(path, content string) (string, error) {
	target := s.Resolve(path)

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &models.Error{
			Op:   "storage.mkdir",
			Kind: models.KindIO,
			Path: dir,
			Err:  err,
		}
	}

	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", &models.Error{
			Op:   "storage.write",
			Kind: models.KindIO,
			Path: target,
			Err:  err,
		}
	}

	return target, nil
}

// Load 讀回腳本內容
func (s *ScriptStore) Load(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &models.Error{
				Op:   "storage.read",
				Kind: models.KindNotFound,
				Path: path,
				Err:  fmt.Errorf("script file does not exist"),
			}
		}
		return "", &models.Error{
			Op:   "storage.read",
			Kind: models.KindIO,
			Path: path,
			Err:  err,
		}
	}
	return string(b), nil
}
