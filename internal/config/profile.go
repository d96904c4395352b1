package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"imsgen/internal/logger"
	"imsgen/internal/models"
)

// Profile 上次使用的參數，保存在 config.json
type Profile struct {
	Domain          string `json:"domain" koanf:"domain"`
	CFN             string `json:"cfn" koanf:"cfn"`
	Password        string `json:"password" koanf:"password"`
	SIFCID          string `json:"sifc_id" koanf:"sifc_id"`
	SCSCF           string `json:"scscf" koanf:"scscf"`
	CC              string `json:"cc" koanf:"cc"`
	LATA            string `json:"lata" koanf:"lata"`
	LastStartNumber string `json:"last_start_number" koanf:"last_start_number"`
	LastCount       int    `json:"last_count" koanf:"last_count"`
	LastSaveDir     string `json:"last_save_dir" koanf:"last_save_dir"`
}

// DefaultProfile 首次啟動時的參數
func DefaultProfile(saveDir string) Profile {
	return Profile{
		Domain:          "dra.ims.sdt",
		CFN:             "cg.dra.ims.sdt",
		Password:        "123456",
		SIFCID:          "100",
		SCSCF:           "scscfpool01",
		CC:              "86",
		LATA:            "10",
		LastStartNumber: "+861088889001",
		LastCount:       10,
		LastSaveDir:     saveDir,
	}
}

// Params 取出網元參數
func (p Profile) Params() models.Params {
	return models.Params{
		Domain:   p.Domain,
		CFN:      p.CFN,
		Password: p.Password,
		SIFCID:   p.SIFCID,
		SCSCF:    p.SCSCF,
		CC:       p.CC,
		LATA:     p.LATA,
	}
}

// WithParams 以參數覆蓋網元欄位
func (p Profile) WithParams(params models.Params) Profile {
	p.Domain = params.Domain
	p.CFN = params.CFN
	p.Password = params.Password
	p.SIFCID = params.SIFCID
	p.SCSCF = params.SCSCF
	p.CC = params.CC
	p.LATA = params.LATA
	return p
}

// ProfileStore 讀寫 JSON 設定檔，寫入以互斥鎖串行化
type ProfileStore struct {
	path     string
	defaults Profile
	log      *logger.Logger
	mu       sync.Mutex
}

func NewProfileStore(path, saveDir string, log *logger.Logger) *ProfileStore {
	if log == nil {
		log = logger.Discard()
	}
	return &ProfileStore{
		path:     path,
		defaults: DefaultProfile(saveDir),
		log:      log,
	}
}

func (s *ProfileStore) Path() string {
	return s.path
}

// Defaults 回傳預設設定檔
func (s *ProfileStore) Defaults() Profile {
	return s.defaults
}

// Load 讀取設定檔。
// 檔案不存在時寫入並回傳預設值；讀寫失敗 (KindIO) 或內容損壞 (KindFormat) 時回傳預設值與錯誤；
// 缺少的鍵以預設值補齊。
func (s *ProfileStore) Load() (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(s.defaults, "koanf"), nil); err != nil {
		return s.defaults, fmt.Errorf("load profile defaults: %w", err)
	}

	if err := k.Load(file.Provider(s.path), kjson.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if werr := s.write(s.defaults); werr != nil {
				s.log.LogProfileFailed(s.path, werr)
				return s.defaults, werr
			}
			s.log.LogProfileLoaded(s.path, true)
			return s.defaults, nil
		}

		// 開檔失敗屬於 I/O，其餘為解析錯誤
		kind := models.KindFormat
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			kind = models.KindIO
		}
		perr := models.NewError("profile.load", kind, s.path, err)
		s.log.LogProfileFailed(s.path, perr)
		return s.defaults, perr
	}

	var p Profile
	if err := k.Unmarshal("", &p); err != nil {
		perr := models.NewError("profile.load", models.KindFormat, s.path, err)
		s.log.LogProfileFailed(s.path, perr)
		return s.defaults, perr
	}

	s.log.LogProfileLoaded(s.path, false)
	return p, nil
}

// Save 以暫存檔加改名的方式原子寫入
func (s *ProfileStore) Save(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(p); err != nil {
		s.log.LogProfileFailed(s.path, err)
		return err
	}
	s.log.LogProfileSaved(s.path)
	return nil
}

func (s *ProfileStore) write(p Profile) error {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(p, "koanf"), nil); err != nil {
		return models.NewError("profile.save", models.KindIO, s.path, err)
	}

	raw, err := k.Marshal(kjson.Parser())
	if err != nil {
		return models.NewError("profile.save", models.KindIO, s.path, err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "    "); err != nil {
		return models.NewError("profile.save", models.KindIO, s.path, err)
	}
	out.WriteByte('\n')

	if err := writeFileAtomic(s.path, out.Bytes()); err != nil {
		return models.NewError("profile.save", models.KindIO, s.path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
