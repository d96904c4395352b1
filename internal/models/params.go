package models

import (
	"fmt"
	"strings"
)

// NetworkElement 放號腳本的目標網元
type NetworkElement int

const (
	ElementUSPP NetworkElement = iota
	ElementENUM
	ElementSSS
)

// String returns the string representation of NetworkElement
func (e NetworkElement) String() string {
	switch e {
	case ElementUSPP:
		return "uspp"
	case ElementENUM:
		return "enum"
	case ElementSSS:
		return "sss"
	default:
		return "unknown"
	}
}

// MarshalText 以名稱序列化網元
func (e NetworkElement) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText 從名稱解析網元
func (e *NetworkElement) UnmarshalText(text []byte) error {
	v, ok := ParseNetworkElement(string(text))
	if !ok {
		return fmt.Errorf("%w: unknown network element %q", ErrValidation, text)
	}
	*e = v
	return nil
}

// ParseNetworkElement 將名稱轉換為網元，大小寫不敏感
func ParseNetworkElement(name string) (NetworkElement, bool) {
	for _, e := range AllElements() {
		if strings.EqualFold(e.String(), strings.TrimSpace(name)) {
			return e, true
		}
	}
	return 0, false
}

// AllElements 依腳本輸出順序回傳所有網元
func AllElements() []NetworkElement {
	return []NetworkElement{ElementUSPP, ElementENUM, ElementSSS}
}

// CommandKind 每個網元下的指令類型
type CommandKind int

const (
	CommandPVI CommandKind = iota
	CommandPUISIP
	CommandPUITel
	CommandIMPRegSet
	CommandAliasGroup
	CommandNAPTR
	CommandOSUSBR
	CommandOSUOIP
)

// String returns the string representation of CommandKind
func (k CommandKind) String() string {
	switch k {
	case CommandPVI:
		return "uspp_pvi"
	case CommandPUISIP:
		return "uspp_pui_sip"
	case CommandPUITel:
		return "uspp_pui_tel"
	case CommandIMPRegSet:
		return "uspp_impregset"
	case CommandAliasGroup:
		return "uspp_aliasegroup"
	case CommandNAPTR:
		return "enum_naptr"
	case CommandOSUSBR:
		return "sss_osu_sbr"
	case CommandOSUOIP:
		return "sss_osu_oip"
	default:
		return "unknown"
	}
}

// Params 網元參數，用於填入指令範本
type Params struct {
	// 域名，如 dra.ims.sdt
	Domain string `json:"domain" koanf:"domain" yaml:"domain" validate:"required,imsdomain" doc:"IMS 域名" example:"dra.ims.sdt"`

	// 計費功能節點名稱
	CFN string `json:"cfn" koanf:"cfn" yaml:"cfn" validate:"required" doc:"CFN" example:"cg.dra.ims.sdt"`

	// 鑑權密碼
	Password string `json:"password" koanf:"password" yaml:"password" validate:"required" doc:"鑑權密碼" example:"123456"`

	SIFCID string `json:"sifc_id" koanf:"sifc_id" yaml:"sifc_id" validate:"required,integer" doc:"SIFC ID" example:"100"`
	SCSCF  string `json:"scscf" koanf:"scscf" yaml:"scscf" validate:"required" doc:"S-CSCF 名稱" example:"scscfpool01"`

	// 國家碼
	CC string `json:"cc" koanf:"cc" yaml:"cc" validate:"required,integer" doc:"國家碼" example:"86"`

	LATA string `json:"lata" koanf:"lata" yaml:"lata" validate:"required,integer" doc:"LATA" example:"10"`
}

// Vars 回傳範本變數，不含號碼相關的變數
func (p Params) Vars() map[string]string {
	return map[string]string{
		"domain":   p.Domain,
		"cfn":      p.CFN,
		"password": p.Password,
		"sifc_id":  p.SIFCID,
		"scscf":    p.SCSCF,
		"cc":       p.CC,
		"lata":     p.LATA,
	}
}

// Merge 以 other 中的非空欄位覆蓋 p
func (p Params) Merge(other Params) Params {
	if other.Domain != "" {
		p.Domain = other.Domain
	}
	if other.CFN != "" {
		p.CFN = other.CFN
	}
	if other.Password != "" {
		p.Password = other.Password
	}
	if other.SIFCID != "" {
		p.SIFCID = other.SIFCID
	}
	if other.SCSCF != "" {
		p.SCSCF = other.SCSCF
	}
	if other.CC != "" {
		p.CC = other.CC
	}
	if other.LATA != "" {
		p.LATA = other.LATA
	}
	return p
}
