package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// validationMiddleware 檢查請求的媒體類型
func (s *Server) validationMiddleware(ctx huma.Context, next func(huma.Context)) {
	switch ctx.Method() {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		contentType := ctx.Header("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "application/json") {
			_ = huma.WriteErr(s.api, ctx, http.StatusUnsupportedMediaType, "不支援的媒體類型，請使用 application/json")
			return
		}
	}

	next(ctx)
}

// CORSMiddleware CORS 中間件
func CORSMiddleware(ctx huma.Context, next func(huma.Context)) {
	ctx.SetHeader("Access-Control-Allow-Origin", "*")
	ctx.SetHeader("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	ctx.SetHeader("Access-Control-Allow-Headers", "Content-Type")

	if ctx.Method() == http.MethodOptions {
		ctx.SetStatus(http.StatusNoContent)
		return
	}

	next(ctx)
}

// requestLogMiddleware 請求日誌
func (s *Server) requestLogMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	op := ""
	if ctx.Operation() != nil {
		op = ctx.Operation().OperationID
	}
	s.log.Debug("api request",
		"method", ctx.Method(),
		"path", ctx.URL().Path,
		"operation", op,
		"status", ctx.Status(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// errorHandlingMiddleware 把 handler 的 panic 轉成 500
func (s *Server) errorHandlingMiddleware(ctx huma.Context, next func(huma.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in handler", "path", ctx.URL().Path, "panic", fmt.Sprint(r))
			_ = huma.WriteErr(s.api, ctx, http.StatusInternalServerError, "內部伺服器錯誤")
		}
	}()

	next(ctx)
}
