package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"imsgen/internal/models"
)

const (
	MinCount = 1
	MaxCount = 10000
)

var (
	// 可選的 + 號，後跟 8-15 位數字
	phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	// 字母、數字、點、連字符，並以至少兩個字母的頂級域結尾
	domainPattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Input 一次產生動作的完整輸入
type Input struct {
	StartNumber string        `json:"start_number" validate:"required,phone"`
	Count       int           `json:"count" validate:"min=1,max=10000"`
	Params      models.Params `json:"params"`
}

// FieldError 單一欄位的驗證錯誤
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError 匯總所有欄位錯誤
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is 讓 errors.Is(err, models.ErrValidation) 成立
func (e *ValidationError) Is(target error) bool {
	return target == models.ErrValidation
}

// FieldNames 回傳出錯欄位名稱，依結構順序
func (e *ValidationError) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return names
}

// AsValidationError 從錯誤鏈取出 *ValidationError
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Validator 包裝 go-playground validator 並註冊放號相關的規則
type Validator struct {
	v *playground.Validate
}

// New 創建驗證器
func New() *Validator {
	v := playground.New(playground.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// 規則名稱固定，註冊不會失敗
	_ = v.RegisterValidation("phone", func(fl playground.FieldLevel) bool {
		return ValidPhoneNumber(fl.Field().String())
	})
	_ = v.RegisterValidation("imsdomain", func(fl playground.FieldLevel) bool {
		return ValidDomain(fl.Field().String())
	})
	_ = v.RegisterValidation("integer", func(fl playground.FieldLevel) bool {
		return ValidInteger(fl.Field().String())
	})

	return &Validator{v: v}
}

// Validate 檢查輸入，回傳 *ValidationError 或 nil
func (val *Validator) Validate(in Input) error {
	return convert(val.v.Struct(in))
}

// ValidateParams 只檢查網元參數
func (val *Validator) ValidateParams(p models.Params) error {
	return convert(val.v.Struct(p))
}

func convert(err error) error {
	if err == nil {
		return nil
	}

	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "phone":
		return "must be 8-15 digits with an optional leading +"
	case "imsdomain":
		return "is not a valid domain"
	case "integer":
		return "must be an integer"
	case "min", "max":
		return fmt.Sprintf("must be between %d and %d", MinCount, MaxCount)
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// ValidPhoneNumber 驗證電話號碼格式
func ValidPhoneNumber(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidDomain 驗證域名格式
func ValidDomain(domain string) bool {
	return domainPattern.MatchString(domain)
}

// ValidCount 驗證號碼數量
func ValidCount(count int) bool {
	return count >= MinCount && count <= MaxCount
}

// ValidCountString 驗證字串形式的號碼數量
func ValidCountString(s string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && ValidCount(n)
}

// ValidInteger 驗證可解析為整數的參數
func ValidInteger(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}
