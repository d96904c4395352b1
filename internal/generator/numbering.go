package generator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"imsgen/internal/models"
)

// Sequence 由起始號碼推導出 count 個連續號碼。
// 起始號碼可帶前綴 "+"，其餘部分必須全為數字並以十進位整數遞增；前導零不保留。
func Sequence(start string, count int) ([]string, error) {
	if count < 1 {
		return nil, sequenceError(fmt.Errorf("%w: count must be at least 1, got %d", models.ErrInvalidNumber, count))
	}

	prefix, digits := splitPrefix(start)
	if digits == "" {
		return nil, sequenceError(fmt.Errorf("%w: %q has no digits", models.ErrInvalidNumber, start))
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, sequenceError(fmt.Errorf("%w: %q is not a decimal number", models.ErrInvalidNumber, start))
		}
	}

	base, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return nil, sequenceError(fmt.Errorf("%w: %v", models.ErrInvalidNumber, err))
	}
	if base > math.MaxUint64-uint64(count-1) {
		return nil, sequenceError(fmt.Errorf("%w: %q overflows after %d numbers", models.ErrInvalidNumber, start, count))
	}

	numbers := make([]string, 0, count)
	for i := 0; i < count; i++ {
		numbers = append(numbers, prefix+strconv.FormatUint(base+uint64(i), 10))
	}
	return numbers, nil
}

// ReverseForENUM 將號碼轉為 ENUM 反向點分格式，如 +861088889001 -> 1.0.0.9.8.8.8.8.0.1.6.8
func ReverseForENUM(number string) string {
	_, digits := splitPrefix(number)
	if digits == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(digits) * 2)
	for i := len(digits) - 1; i >= 0; i-- {
		b.WriteByte(digits[i])
		if i > 0 {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// AliasID 從號碼提取別名群組ID，即去掉前綴 "+" 的號碼
func AliasID(number string) string {
	_, digits := splitPrefix(number)
	return digits
}

func splitPrefix(number string) (string, string) {
	if strings.HasPrefix(number, "+") {
		return "+", number[1:]
	}
	return "", number
}

func sequenceError(err error) error {
	return models.NewError("generator.sequence", models.KindValidation, "", err)
}
