package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"imsgen/internal/models"
	"imsgen/internal/services"
	"imsgen/internal/validator"
)

// ===== 腳本 API Input/Output Types =====

// GenerateScriptInput 產生腳本的輸入
type GenerateScriptInput struct {
	Body struct {
		StartNumber string        `json:"start_number" doc:"起始號碼，8-15 位數字，可帶 + 號" example:"+861088889001"`
		Count       int           `json:"count" doc:"號碼數量 (1-10000)" example:"10"`
		Params      models.Params `json:"params" doc:"網元參數"`
		Elements    []string      `json:"elements,omitempty" doc:"只產生指定網元 (uspp, enum, sss)，省略時產生全部" example:"[\"uspp\",\"enum\",\"sss\"]"`
	}
}

// SectionBody 單一網元區段
type SectionBody struct {
	Element string `json:"element" doc:"網元" example:"uspp"`
	Text    string `json:"text" doc:"區段文字"`
}

// ScriptBody 產生結果
type ScriptBody struct {
	ID          string        `json:"id" doc:"產生ID" example:"0b7c2a52-9a5f-4bd5-9a55-8f7a8c1f3e10"`
	GeneratedAt time.Time     `json:"generated_at" doc:"產生時間"`
	Numbers     []string      `json:"numbers" doc:"號碼序列"`
	Sections    []SectionBody `json:"sections" doc:"依網元分段的腳本"`
	Script      string        `json:"script" doc:"完整腳本"`
	DownloadURL string        `json:"download_url" doc:"純文字下載路徑" example:"/scripts/0b7c2a52-9a5f-4bd5-9a55-8f7a8c1f3e10.txt"`
}

// ScriptOutput 產生與查詢的輸出
type ScriptOutput struct {
	Body ScriptBody
}

// GetScriptInput 查詢腳本的輸入
type GetScriptInput struct {
	ID string `path:"id" doc:"產生ID"`
}

// SaveScriptInput 保存腳本的輸入
type SaveScriptInput struct {
	ID   string `path:"id" doc:"產生ID"`
	Body *struct {
		FileName string `json:"file_name,omitempty" doc:"輸出目錄下的檔名，省略時自動命名" example:"batch_0301.txt"`
	} `required:"false"`
}

// SaveScriptOutput 保存腳本的輸出
type SaveScriptOutput struct {
	Body struct {
		ID    string `json:"id" doc:"產生ID"`
		Path  string `json:"path" doc:"實際寫入的檔案路徑"`
		Bytes int    `json:"bytes" doc:"寫入位元組數"`
	}
}

// ===== 腳本 API Handlers =====

// registerScriptsAPI 註冊腳本相關的 API
func (s *Server) registerScriptsAPI() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "generateScript",
		Method:        http.MethodPost,
		Path:          "/api/v1/scripts",
		Summary:       "產生放號腳本",
		Description:   "依起始號碼、數量與網元參數展開 USPP、ENUM、SSS 放號指令",
		Tags:          []string{"scripts"},
		DefaultStatus: http.StatusCreated,
	}, s.generateScript)

	huma.Register(s.api, huma.Operation{
		OperationID: "getScript",
		Method:      http.MethodGet,
		Path:        "/api/v1/scripts/{id}",
		Summary:     "查詢產生結果",
		Description: "根據產生ID取回保留在記憶體中的腳本",
		Tags:        []string{"scripts"},
	}, s.getScript)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveScript",
		Method:      http.MethodPost,
		Path:        "/api/v1/scripts/{id}/save",
		Summary:     "保存腳本到檔案",
		Description: "把保留的腳本寫入輸出目錄；寫入失敗時結果仍保留，可重試",
		Tags:        []string{"scripts"},
	}, s.saveScript)
}

// generateScript 產生腳本並保留結果
func (s *Server) generateScript(ctx context.Context, input *GenerateScriptInput) (*ScriptOutput, error) {
	req := input.Body

	elements, err := parseElements(req.Elements)
	if err != nil {
		return nil, err
	}

	res, err := s.scripts.Generate(ctx, services.GenerateRequest{
		StartNumber: strings.TrimSpace(req.StartNumber),
		Count:       req.Count,
		Params:      req.Params,
		Elements:    elements,
	})
	if err != nil {
		return nil, toHTTPError(err, scriptFieldLocation)
	}

	s.history.put(res)
	s.metrics.historySize.Set(float64(s.history.len()))

	return &ScriptOutput{Body: scriptBody(res)}, nil
}

// getScript 查詢保留的腳本
func (s *Server) getScript(ctx context.Context, input *GetScriptInput) (*ScriptOutput, error) {
	res, ok := s.history.get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("找不到指定的產生結果")
	}
	return &ScriptOutput{Body: scriptBody(res)}, nil
}

// saveScript 保存腳本到輸出目錄
func (s *Server) saveScript(ctx context.Context, input *SaveScriptInput) (*SaveScriptOutput, error) {
	res, ok := s.history.get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("找不到指定的產生結果")
	}

	// 只接受檔名，一律寫到輸出目錄下
	var name, path string
	if input.Body != nil {
		name = strings.TrimSpace(input.Body.FileName)
	}
	if name != "" {
		base := filepath.Base(name)
		if base == "." || base == ".." || base == string(filepath.Separator) {
			return nil, huma.Error422UnprocessableEntity("檔名不正確", &huma.ErrorDetail{
				Location: "body.file_name",
				Message:  "must be a plain file name",
				Value:    name,
			})
		}
		path = filepath.Join(s.outputDir, base)
	}

	saved, err := s.scripts.Save(ctx, res, path)
	if err != nil {
		return nil, toHTTPError(err, scriptFieldLocation)
	}

	output := &SaveScriptOutput{}
	output.Body.ID = res.ID
	output.Body.Path = saved
	output.Body.Bytes = len(res.Script.Text)
	return output, nil
}

// downloadScript 以純文字下載腳本
func (s *Server) downloadScript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, ok := s.history.get(id)
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.PlainText(w, r, "script not found\n")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ims_script_%s.txt"`, res.GeneratedAt.Format("20060102_150405")))
	render.PlainText(w, r, res.Script.Text)
}

func scriptBody(res *services.GenerateResult) ScriptBody {
	body := ScriptBody{
		ID:          res.ID,
		GeneratedAt: res.GeneratedAt,
		Numbers:     res.Script.Numbers,
		Sections:    make([]SectionBody, 0, len(res.Script.Sections)),
		Script:      res.Script.Text,
		DownloadURL: "/scripts/" + res.ID + ".txt",
	}
	for _, sec := range res.Script.Sections {
		body.Sections = append(body.Sections, SectionBody{Element: sec.Element.String(), Text: sec.Text})
	}
	return body
}

func parseElements(names []string) ([]models.NetworkElement, error) {
	var out []models.NetworkElement
	var details []error
	for i, name := range names {
		e, ok := models.ParseNetworkElement(name)
		if !ok {
			details = append(details, &huma.ErrorDetail{
				Location: fmt.Sprintf("body.elements[%d]", i),
				Message:  "must be one of uspp, enum, sss",
				Value:    name,
			})
			continue
		}
		out = append(out, e)
	}
	if len(details) > 0 {
		return nil, huma.Error422UnprocessableEntity("validation failed", details...)
	}
	return out, nil
}

// toHTTPError 把服務層錯誤轉成 HTTP 狀態，locate 把欄位名轉成錯誤位置
func toHTTPError(err error, locate func(string) string) error {
	if ve, ok := validator.AsValidationError(err); ok {
		details := make([]error, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			details = append(details, &huma.ErrorDetail{
				Location: locate(f.Field),
				Message:  f.Message,
			})
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	}

	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidNumber):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, models.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("request cancelled")
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}

func scriptFieldLocation(field string) string {
	switch field {
	case "start_number", "count":
		return "body." + field
	default:
		return "body.params." + field
	}
}

func isValidation(err error) bool {
	return errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrInvalidNumber)
}
