package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"imsgen/internal/config"
	"imsgen/internal/models"
	"imsgen/internal/validator"
)

// Values 表單填寫結果
type Values struct {
	StartNumber string
	Count       int
	Params      models.Params
	Elements    []models.NetworkElement
}

// Actions 產生後要執行的動作
type Actions struct {
	Save     bool
	SavePath string
	Copy     bool
}

type field struct {
	message string
	def     string
	check   func(string) error
	target  *string
}

// Fill 依表單順序逐欄詢問，每欄以設定檔的值為預設並即時驗證
func Fill(ctx context.Context, d PromptDriver, defaults config.Profile) (Values, error) {
	var v Values
	var err error

	if v.StartNumber, err = d.Input(ctx, InputConfig{
		Message:   "起始號碼:",
		Default:   defaults.LastStartNumber,
		Help:      "8-15 位數字，可帶 + 號，例如 +861088889001",
		Validator: checkPhone,
	}); err != nil {
		return Values{}, err
	}
	v.StartNumber = strings.TrimSpace(v.StartNumber)

	count, err := d.Input(ctx, InputConfig{
		Message:   "號碼數量:",
		Default:   strconv.Itoa(defaults.LastCount),
		Help:      fmt.Sprintf("%d-%d", validator.MinCount, validator.MaxCount),
		Validator: checkCount,
	})
	if err != nil {
		return Values{}, err
	}
	if v.Count, err = strconv.Atoi(strings.TrimSpace(count)); err != nil {
		return Values{}, fmt.Errorf("%w: count %q", models.ErrValidation, count)
	}

	p := &v.Params
	fields := []field{
		{"域名 (domain):", defaults.Domain, checkDomain, &p.Domain},
		{"CFN:", defaults.CFN, checkRequired, &p.CFN},
	}
	for _, f := range fields {
		if *f.target, err = ask(ctx, d, f.message, f.def, f.check); err != nil {
			return Values{}, err
		}
	}

	if p.Password, err = d.Password(ctx, InputConfig{
		Message:   "密碼 (留空沿用原值):",
		Default:   defaults.Password,
		Validator: optionalWhen(defaults.Password != ""),
	}); err != nil {
		return Values{}, err
	}

	fields = []field{
		{"SIFC ID:", defaults.SIFCID, checkInteger, &p.SIFCID},
		{"S-CSCF:", defaults.SCSCF, checkRequired, &p.SCSCF},
		{"國家碼 (CC):", defaults.CC, checkInteger, &p.CC},
		{"LATA:", defaults.LATA, checkInteger, &p.LATA},
	}
	for _, f := range fields {
		if *f.target, err = ask(ctx, d, f.message, f.def, f.check); err != nil {
			return Values{}, err
		}
	}

	elements := models.AllElements()
	options := make([]string, len(elements))
	all := make([]int, len(elements))
	for i, e := range elements {
		options[i] = strings.ToUpper(e.String())
		all[i] = i
	}
	picked, err := d.MultiSelect(ctx, SelectConfig{
		Message:  "產生哪些網元:",
		Options:  options,
		Defaults: all,
	})
	if err != nil {
		return Values{}, err
	}
	for _, idx := range picked {
		if idx >= 0 && idx < len(elements) {
			v.Elements = append(v.Elements, elements[idx])
		}
	}
	if len(v.Elements) == 0 {
		v.Elements = elements
	}

	return v, nil
}

// AskActions 詢問是否保存與複製
func AskActions(ctx context.Context, d PromptDriver, defaultPath string) (Actions, error) {
	var a Actions
	var err error

	if a.Save, err = d.Confirm(ctx, ConfirmConfig{Message: "保存腳本到檔案?", Default: true}); err != nil {
		return Actions{}, err
	}
	if a.Save {
		if a.SavePath, err = d.Input(ctx, InputConfig{
			Message: "保存路徑:",
			Default: defaultPath,
			Help:    "檔案或目錄；目錄會自動命名 ims_script_YYYYMMDD_HHMMSS.txt",
		}); err != nil {
			return Actions{}, err
		}
		a.SavePath = strings.TrimSpace(a.SavePath)
	}

	if a.Copy, err = d.Confirm(ctx, ConfirmConfig{Message: "複製腳本到剪貼簿?"}); err != nil {
		return Actions{}, err
	}
	return a, nil
}

// Summary 顯示產生結果摘要：號碼範圍與產生的網元
func Summary(ctx context.Context, d PromptDriver, numbers []string, elements []models.NetworkElement) error {
	if len(numbers) == 0 {
		return nil
	}
	names := make([]string, len(elements))
	for i, e := range elements {
		names[i] = strings.ToUpper(e.String())
	}
	return d.Info(ctx, fmt.Sprintf("已產生 %d 個號碼 (%s ~ %s)，網元: %s",
		len(numbers), numbers[0], numbers[len(numbers)-1], strings.Join(names, ", ")))
}

// IsAborted 判斷使用者是否中斷了表單
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}

func ask(ctx context.Context, d PromptDriver, message, def string, check func(string) error) (string, error) {
	out, err := d.Input(ctx, InputConfig{Message: message, Default: def, Validator: check})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func checkPhone(s string) error {
	if !validator.ValidPhoneNumber(strings.TrimSpace(s)) {
		return errors.New("號碼需為 8-15 位數字，可帶 + 號")
	}
	return nil
}

func checkCount(s string) error {
	if !validator.ValidCountString(s) {
		return fmt.Errorf("數量需介於 %d 與 %d", validator.MinCount, validator.MaxCount)
	}
	return nil
}

func checkDomain(s string) error {
	if !validator.ValidDomain(strings.TrimSpace(s)) {
		return errors.New("域名格式不正確")
	}
	return nil
}

func checkRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("此欄位不可為空")
	}
	return nil
}

func checkInteger(s string) error {
	if err := checkRequired(s); err != nil {
		return err
	}
	if !validator.ValidInteger(s) {
		return errors.New("需為整數")
	}
	return nil
}

func optionalWhen(hasDefault bool) func(string) error {
	return func(s string) error {
		if hasDefault {
			return nil
		}
		return checkRequired(s)
	}
}
