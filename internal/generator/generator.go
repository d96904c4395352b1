package generator

import (
	"errors"
	"fmt"
	"strings"

	"imsgen/internal/models"
)

// Request 產生腳本所需的輸入
type Request struct {
	StartNumber string
	Count       int
	Params      models.Params

	// 只產生指定網元；為空時產生全部
	Elements []models.NetworkElement
}

// SectionText 單一網元展開後的文字
type SectionText struct {
	Element models.NetworkElement `json:"element"`
	Text    string                `json:"text"`
}

// Script 完整的放號腳本
type Script struct {
	Numbers  []string
	Sections []SectionText
	Text     string
}

// Generator 依範本目錄展開放號腳本
type Generator struct {
	catalog []Section
}

// Option configures a Generator.
type Option func(*Generator)

// WithCatalog 替換預設的範本目錄
func WithCatalog(catalog []Section) Option {
	return func(g *Generator) {
		if len(catalog) > 0 {
			g.catalog = catalog
		}
	}
}

// New 創建使用預設範本目錄的產生器
func New(opts ...Option) *Generator {
	g := &Generator{catalog: DefaultCatalog()}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate 推導號碼序列並展開所有選定網元的範本
func (g *Generator) Generate(req Request) (*Script, error) {
	numbers, err := Sequence(req.StartNumber, req.Count)
	if err != nil {
		return nil, err
	}

	sections, err := g.selectSections(req.Elements)
	if err != nil {
		return nil, err
	}

	vars := make([]map[string]string, len(numbers))
	for i, number := range numbers {
		vars[i] = numberVars(number, req.Params)
	}

	script := &Script{
		Numbers:  numbers,
		Sections: make([]SectionText, 0, len(sections)),
	}

	var full strings.Builder
	for _, sec := range sections {
		text, err := expandSection(sec, vars)
		if err != nil {
			return nil, fmt.Errorf("expand %s section: %w", sec.Element, err)
		}
		script.Sections = append(script.Sections, SectionText{Element: sec.Element, Text: text})
		full.WriteString(text)
	}
	script.Text = full.String()

	return script, nil
}

func (g *Generator) selectSections(elements []models.NetworkElement) ([]Section, error) {
	if len(elements) == 0 {
		return g.catalog, nil
	}

	wanted := make(map[models.NetworkElement]bool, len(elements))
	for _, e := range elements {
		wanted[e] = true
	}

	var out []Section
	for _, sec := range g.catalog {
		if wanted[sec.Element] {
			out = append(out, sec)
		}
	}
	if len(out) == 0 {
		return nil, models.NewError("generator.sections", models.KindValidation, "",
			fmt.Errorf("%w: no catalog section matches the requested elements", models.ErrValidation))
	}
	return out, nil
}

func expandSection(sec Section, vars []map[string]string) (string, error) {
	parts := make([]string, 0, 1+len(sec.Commands)*(len(vars)+1))
	parts = append(parts, sec.Lead+sec.Banner+sec.Trail)

	for i, cmd := range sec.Commands {
		if i > 0 {
			parts = append(parts, "\n")
		}
		for _, v := range vars {
			line, err := RenderString(cmd.Template, v)
			if err != nil {
				return "", fmt.Errorf("%s: %w", cmd.Kind, err)
			}
			parts = append(parts, line)
		}
	}

	return strings.Join(parts, "\n"), nil
}

func numberVars(number string, params models.Params) map[string]string {
	vars := params.Vars()
	vars["phone"] = number
	vars["alias_id"] = AliasID(number)
	vars["enum_name"] = ReverseForENUM(number)
	return vars
}

// IsFormatError 判斷錯誤是否來自範本展開
func IsFormatError(err error) bool {
	return errors.Is(err, models.ErrTemplate)
}
