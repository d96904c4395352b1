package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"imsgen/internal/config"
	"imsgen/internal/models"
)

// Plan 一份放號計畫，出現的欄位覆蓋設定檔
type Plan struct {
	StartNumber string        `yaml:"start_number"`
	Count       int           `yaml:"count"`
	Elements    []string      `yaml:"elements"`
	Output      string        `yaml:"output"`
	Params      models.Params `yaml:"params"`
}

// Load 讀取 YAML 計畫檔，未知欄位視為錯誤
func Load(path string) (*Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		kind := models.KindIO
		if errors.Is(err, fs.ErrNotExist) {
			kind = models.KindNotFound
		}
		return nil, &models.Error{
			Op:   "plan.read",
			Kind: kind,
			Path: path,
			Err:  err,
		}
	}

	p, err := Parse(b)
	if err != nil {
		return nil, &models.Error{
			Op:   "plan.parse",
			Kind: models.KindValidation,
			Path: path,
			Err:  err,
		}
	}
	return p, nil
}

// Parse 解析計畫內容
func Parse(b []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	if p.Count < 0 {
		return nil, fmt.Errorf("%w: count must not be negative, got %d", models.ErrValidation, p.Count)
	}
	if _, err := p.NetworkElements(); err != nil {
		return nil, err
	}
	return &p, nil
}

// NetworkElements 解析 elements 欄位；為空時回傳 nil 表示全部
func (p *Plan) NetworkElements() ([]models.NetworkElement, error) {
	if len(p.Elements) == 0 {
		return nil, nil
	}
	out := make([]models.NetworkElement, 0, len(p.Elements))
	for _, name := range p.Elements {
		e, ok := models.ParseNetworkElement(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown network element %q", models.ErrValidation, name)
		}
		out = append(out, e)
	}
	return out, nil
}

// ApplyTo 以計畫中出現的欄位覆蓋設定檔
func (p *Plan) ApplyTo(profile config.Profile) config.Profile {
	if p.StartNumber != "" {
		profile.LastStartNumber = p.StartNumber
	}
	if p.Count != 0 {
		profile.LastCount = p.Count
	}
	return profile.WithParams(profile.Params().Merge(p.Params))
}
