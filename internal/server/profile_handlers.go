package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"imsgen/internal/config"
	"imsgen/internal/models"
)

// ProfileBody 保存的參數
type ProfileBody struct {
	Domain          string `json:"domain" doc:"IMS 域名" example:"dra.ims.sdt"`
	CFN             string `json:"cfn" doc:"CFN" example:"cg.dra.ims.sdt"`
	Password        string `json:"password" doc:"鑑權密碼" example:"123456"`
	SIFCID          string `json:"sifc_id" doc:"SIFC ID" example:"100"`
	SCSCF           string `json:"scscf" doc:"S-CSCF 名稱" example:"scscfpool01"`
	CC              string `json:"cc" doc:"國家碼" example:"86"`
	LATA            string `json:"lata" doc:"LATA" example:"10"`
	LastStartNumber string `json:"last_start_number,omitempty" doc:"上次的起始號碼" example:"+861088889001"`
	LastCount       int    `json:"last_count,omitempty" doc:"上次的號碼數量" example:"10"`
	LastSaveDir     string `json:"last_save_dir,omitempty" doc:"上次的保存目錄"`
}

// ProfileOutput 設定檔查詢與更新的輸出
type ProfileOutput struct {
	Body ProfileBody
}

// UpdateProfileInput 更新設定檔的輸入
type UpdateProfileInput struct {
	Body ProfileBody
}

// registerProfileAPI 註冊設定檔相關的 API
func (s *Server) registerProfileAPI() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profile",
		Summary:     "查詢保存的參數",
		Tags:        []string{"profile"},
	}, s.getProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPut,
		Path:        "/api/v1/profile",
		Summary:     "更新保存的參數",
		Description: "驗證網元參數後寫回設定檔",
		Tags:        []string{"profile"},
	}, s.updateProfile)
}

func (s *Server) getProfile(ctx context.Context, input *struct{}) (*ProfileOutput, error) {
	p, err := s.scripts.Profile()
	if err != nil {
		// 設定檔損壞或無法讀寫時 Load 仍回傳預設值
		if !models.IsKind(err, models.KindFormat) && !models.IsKind(err, models.KindIO) {
			return nil, toHTTPError(err, bodyFieldLocation)
		}
		s.log.Warn("profile unreadable, serving defaults", "error", err)
	}
	return &ProfileOutput{Body: profileBody(p)}, nil
}

func (s *Server) updateProfile(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	b := input.Body
	p := config.Profile{
		Domain:          b.Domain,
		CFN:             b.CFN,
		Password:        b.Password,
		SIFCID:          b.SIFCID,
		SCSCF:           b.SCSCF,
		CC:              b.CC,
		LATA:            b.LATA,
		LastStartNumber: b.LastStartNumber,
		LastCount:       b.LastCount,
		LastSaveDir:     b.LastSaveDir,
	}
	if err := s.scripts.UpdateProfile(p); err != nil {
		return nil, toHTTPError(err, bodyFieldLocation)
	}
	return &ProfileOutput{Body: profileBody(p)}, nil
}

func profileBody(p config.Profile) ProfileBody {
	return ProfileBody{
		Domain:          p.Domain,
		CFN:             p.CFN,
		Password:        p.Password,
		SIFCID:          p.SIFCID,
		SCSCF:           p.SCSCF,
		CC:              p.CC,
		LATA:            p.LATA,
		LastStartNumber: p.LastStartNumber,
		LastCount:       p.LastCount,
		LastSaveDir:     p.LastSaveDir,
	}
}

func bodyFieldLocation(field string) string {
	return "body." + field
}
