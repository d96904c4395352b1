package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"imsgen/internal/config"
	"imsgen/internal/generator"
	"imsgen/internal/logger"
	"imsgen/internal/models"
	"imsgen/internal/validator"
)

// ProfileRepository 讀寫上次使用的參數
type ProfileRepository interface {
	Load() (config.Profile, error)
	Save(p config.Profile) error
}

// ScriptWriter 把腳本寫入檔案，回傳實際路徑
type ScriptWriter interface {
	Save(path, content string) (string, error)
}

// Clipboard 系統剪貼簿
type Clipboard interface {
	WriteAll(text string) error
}

// Observer 接收產生與保存的結果，用於指標統計
type Observer interface {
	ObserveGeneration(numbers int, duration time.Duration, err error)
	ObserveSave(err error)
}

// SystemClipboard 使用 atotto/clipboard 寫入系統剪貼簿
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

type GenerateRequest struct {
	StartNumber string
	Count       int
	Params      models.Params
	Elements    []models.NetworkElement
}

// GenerateResult 一次成功的產生結果，保存失敗時仍可重用
type GenerateResult struct {
	ID          string
	Script      *generator.Script
	GeneratedAt time.Time
	Request     GenerateRequest
}

type ScriptService struct {
	generator *generator.Generator
	validator *validator.Validator
	profiles  ProfileRepository
	writer    ScriptWriter
	clipboard Clipboard
	observer  Observer
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*ScriptService)

func WithClipboard(c Clipboard) Option {
	return func(s *ScriptService) { s.clipboard = c }
}

func WithObserver(o Observer) Option {
	return func(s *ScriptService) { s.observer = o }
}

func WithGenerator(g *generator.Generator) Option {
	return func(s *ScriptService) { s.generator = g }
}

// WithClock 替換時鐘與 ID 產生器，測試用
func WithClock(now func() time.Time, newID func() string) Option {
	return func(s *ScriptService) {
		if now != nil {
			s.now = now
		}
		if newID != nil {
			s.newID = newID
		}
	}
}

func NewScriptService(profiles ProfileRepository, writer ScriptWriter, log *logger.Logger, opts ...Option) *ScriptService {
	if log == nil {
		log = logger.Discard()
	}
	s := &ScriptService{
		generator: generator.New(),
		validator: validator.New(),
		profiles:  profiles,
		writer:    writer,
		clipboard: SystemClipboard{},
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate 驗證輸入、產生腳本並記住本次參數
func (s *ScriptService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := s.newID()
	started := s.now()
	s.log.LogGenerateStart(id, req.StartNumber, req.Count)

	in := validator.Input{
		StartNumber: req.StartNumber,
		Count:       req.Count,
		Params:      req.Params,
	}
	if err := s.validator.Validate(in); err != nil {
		if ve, ok := validator.AsValidationError(err); ok {
			s.log.LogValidationFailed(id, ve.FieldNames())
		} else {
			s.log.LogGenerateFailed(id, err)
		}
		s.observeGeneration(0, 0, err)
		return nil, err
	}

	script, err := s.generator.Generate(generator.Request{
		StartNumber: req.StartNumber,
		Count:       req.Count,
		Params:      req.Params,
		Elements:    req.Elements,
	})
	if err != nil {
		s.log.LogGenerateFailed(id, err)
		s.observeGeneration(0, 0, err)
		return nil, fmt.Errorf("generate script: %w", err)
	}

	elapsed := s.now().Sub(started)
	s.log.LogGenerateSuccess(id, len(script.Numbers), len(script.Text), elapsed)
	s.observeGeneration(len(script.Numbers), elapsed, nil)

	s.remember(func(p config.Profile) config.Profile {
		p = p.WithParams(req.Params)
		p.LastStartNumber = req.StartNumber
		p.LastCount = req.Count
		return p
	})

	return &GenerateResult{
		ID:          id,
		Script:      script,
		GeneratedAt: started,
		Request:     req,
	}, nil
}

// Save 寫入腳本檔案；失敗時回傳錯誤，結果不受影響
func (s *ScriptService) Save(ctx context.Context, res *GenerateResult, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if res == nil || res.Script == nil {
		return "", models.NewError("services.save", models.KindValidation, path,
			fmt.Errorf("%w: nothing generated yet", models.ErrValidation))
	}

	saved, err := s.writer.Save(path, res.Script.Text)
	if s.observer != nil {
		s.observer.ObserveSave(err)
	}
	if err != nil {
		s.log.LogScriptSaveFailed(res.ID, path, err)
		return "", fmt.Errorf("save script: %w", err)
	}

	s.log.LogScriptSaved(res.ID, saved, len(res.Script.Text))
	s.remember(func(p config.Profile) config.Profile {
		p.LastSaveDir = filepath.Dir(saved)
		return p
	})
	return saved, nil
}

// Copy 把腳本寫入剪貼簿
func (s *ScriptService) Copy(ctx context.Context, res *GenerateResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if res == nil || res.Script == nil {
		return models.NewError("services.copy", models.KindValidation, "",
			fmt.Errorf("%w: nothing generated yet", models.ErrValidation))
	}

	if err := s.clipboard.WriteAll(res.Script.Text); err != nil {
		return models.NewError("services.copy", models.KindIO, "", err)
	}
	s.log.LogScriptCopied(res.ID, len(res.Script.Text))
	return nil
}

// Profile 回傳目前保存的參數
func (s *ScriptService) Profile() (config.Profile, error) {
	return s.profiles.Load()
}

// UpdateProfile 驗證網元參數後保存
func (s *ScriptService) UpdateProfile(p config.Profile) error {
	if err := s.validator.ValidateParams(p.Params()); err != nil {
		return err
	}
	if p.LastStartNumber != "" && !validator.ValidPhoneNumber(p.LastStartNumber) {
		return &validator.ValidationError{Fields: []validator.FieldError{{
			Field:   "last_start_number",
			Message: "must be 8-15 digits with an optional leading +",
		}}}
	}
	if p.LastCount != 0 && !validator.ValidCount(p.LastCount) {
		return &validator.ValidationError{Fields: []validator.FieldError{{
			Field:   "last_count",
			Message: fmt.Sprintf("must be between %d and %d", validator.MinCount, validator.MaxCount),
		}}}
	}
	return s.profiles.Save(p)
}

// remember 讀取、修改並寫回設定檔，失敗只記錄不中斷
func (s *ScriptService) remember(update func(config.Profile) config.Profile) {
	if s.profiles == nil {
		return
	}
	// 讀取失敗時 Load 仍回傳預設值
	p, _ := s.profiles.Load()
	if err := s.profiles.Save(update(p)); err != nil {
		s.log.Warn("failed to remember parameters", "error", err)
	}
}

func (s *ScriptService) observeGeneration(numbers int, d time.Duration, err error) {
	if s.observer != nil {
		s.observer.ObserveGeneration(numbers, d, err)
	}
}
