package models

import (
	"errors"
	"fmt"
)

// 錯誤類型定義
var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidNumber = errors.New("invalid start number")
	ErrTemplate      = errors.New("template formatting failed")
	ErrIO            = errors.New("i/o failure")
	ErrNotFound      = errors.New("not found")
)

// ErrorKind 錯誤分類
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindFormat     ErrorKind = "format"
	KindIO         ErrorKind = "io"
	KindNotFound   ErrorKind = "not_found"
)

// Error 包裝錯誤，提供操作名稱與路徑等上下文
type Error struct {
	Op   string    // 操作名稱
	Kind ErrorKind // 錯誤分類
	Path string    // 相關檔案路徑（可選）
	Err  error     // 原始錯誤
}

// Error 實現error接口
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

// Unwrap 支持errors.Unwrap
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is 讓 errors.Is 能以分類對應的哨兵錯誤比對
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return sentinelFor(e.Kind) == target
}

// NewError 創建新的錯誤
func NewError(op string, kind ErrorKind, path string, err error) *Error {
	return &Error{Op: op, Kind: kind, Path: path, Err: err}
}

// IsKind 判斷錯誤鏈中是否有指定分類的 *Error
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindValidation:
		return ErrValidation
	case KindFormat:
		return ErrTemplate
	case KindIO:
		return ErrIO
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}
