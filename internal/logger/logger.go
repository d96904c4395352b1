package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 包裝 slog.Logger 提供結構化日誌記錄
type Logger struct {
	*slog.Logger
	level  slog.Level
	closer io.Closer

	mu      sync.Mutex
	metrics GenerationMetrics
}

// LoggingConfig 日誌配置結構
type LoggingConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	Output     string `koanf:"output"`
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"`
	Compress   bool   `koanf:"compress"`
}

// GenerationEvent 放號流程的日誌事件類型
type GenerationEvent string

const (
	EventGenerateStart    GenerationEvent = "generate_start"
	EventGenerateSuccess  GenerationEvent = "generate_success"
	EventGenerateFailed   GenerationEvent = "generate_failed"
	EventValidationFailed GenerationEvent = "validation_failed"
	EventScriptSaved      GenerationEvent = "script_saved"
	EventScriptSaveFailed GenerationEvent = "script_save_failed"
	EventScriptCopied     GenerationEvent = "script_copied"
	EventProfileLoaded    GenerationEvent = "profile_loaded"
	EventProfileSaved     GenerationEvent = "profile_saved"
	EventProfileFailed    GenerationEvent = "profile_failed"
)

// GenerationMetrics 放號統計
type GenerationMetrics struct {
	TotalGenerations      int64     `json:"total_generations"`
	SuccessfulGenerations int64     `json:"successful_generations"`
	FailedGenerations     int64     `json:"failed_generations"`
	ValidationFailures    int64     `json:"validation_failures"`
	NumbersGenerated      int64     `json:"numbers_generated"`
	ScriptsSaved          int64     `json:"scripts_saved"`
	SaveFailures          int64     `json:"save_failures"`
	LastGenerationTime    time.Time `json:"last_generation_time"`
}

// NewLogger 創建新的結構化日誌記錄器
func NewLogger(config *LoggingConfig) (*Logger, error) {
	if config == nil {
		config = &LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		}
	}

	// 解析日誌級別
	level, err := parseLogLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	// 創建輸出目標
	writer, err := createWriter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create log writer: %w", err)
	}

	handler, err := newHandler(writer, config.Format, level)
	if err != nil {
		return nil, err
	}

	logger := &Logger{
		Logger: slog.New(handler),
		level:  level,
	}
	if c, ok := writer.(io.Closer); ok && writer != os.Stdout && writer != os.Stderr {
		logger.closer = c
	}

	return logger, nil
}

// NewWithWriter 創建寫入指定 writer 的日誌記錄器
func NewWithWriter(w io.Writer, format string, level slog.Level) (*Logger, error) {
	handler, err := newHandler(w, format, level)
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: slog.New(handler), level: level}, nil
}

// Discard 回傳丟棄所有輸出的日誌記錄器
func Discard() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		level:  slog.LevelInfo,
	}
}

func newHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text", "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

// Level 回傳目前的日誌級別
func (l *Logger) Level() slog.Level {
	return l.level
}

// Close 關閉檔案輸出
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// parseLogLevel 解析日誌級別字符串
func parseLogLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// createWriter 根據配置創建日誌輸出目標
func createWriter(config *LoggingConfig) (io.Writer, error) {
	switch strings.ToLower(config.Output) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	case "discard":
		return io.Discard, nil
	case "file":
		if config.FilePath == "" {
			return nil, fmt.Errorf("file path is required when output is 'file'")
		}

		// 確保日誌目錄存在
		dir := filepath.Dir(config.FilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		// 使用 lumberjack 進行日誌輪轉
		return &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported output type: %s", config.Output)
	}
}

// LogEvent 記錄放號事件
func (l *Logger) LogEvent(event GenerationEvent, message string, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("component", "generator"),
		slog.String("event", string(event)),
	}

	allAttrs := append(baseAttrs, attrs...)

	anyAttrs := make([]any, len(allAttrs))
	for i, attr := range allAttrs {
		anyAttrs[i] = attr
	}

	switch event {
	case EventGenerateFailed, EventScriptSaveFailed:
		l.Error(message, anyAttrs...)
	case EventValidationFailed, EventProfileFailed:
		l.Warn(message, anyAttrs...)
	case EventGenerateStart, EventProfileLoaded, EventProfileSaved:
		l.Debug(message, anyAttrs...)
	default:
		l.Info(message, anyAttrs...)
	}
}

// LogGenerateStart 記錄開始產生
func (l *Logger) LogGenerateStart(id, startNumber string, count int) {
	l.mu.Lock()
	l.metrics.TotalGenerations++
	total := l.metrics.TotalGenerations
	l.mu.Unlock()

	l.LogEvent(EventGenerateStart, "Generating provisioning script",
		slog.String("id", id),
		slog.String("start_number", startNumber),
		slog.Int("count", count),
		slog.Int64("total_generations", total),
	)
}

// LogGenerateSuccess 記錄產生成功
func (l *Logger) LogGenerateSuccess(id string, numbers, bytes int, duration time.Duration) {
	l.mu.Lock()
	l.metrics.SuccessfulGenerations++
	l.metrics.NumbersGenerated += int64(numbers)
	l.metrics.LastGenerationTime = time.Now()
	l.mu.Unlock()

	l.LogEvent(EventGenerateSuccess, "Provisioning script generated",
		slog.String("id", id),
		slog.Int("numbers", numbers),
		slog.Int("bytes", bytes),
		slog.Duration("duration", duration),
	)
}

// LogGenerateFailed 記錄產生失敗
func (l *Logger) LogGenerateFailed(id string, err error) {
	l.mu.Lock()
	l.metrics.FailedGenerations++
	l.mu.Unlock()

	l.LogEvent(EventGenerateFailed, "Script generation failed",
		slog.String("id", id),
		slog.String("error", err.Error()),
	)
}

// LogValidationFailed 記錄輸入驗證失敗
func (l *Logger) LogValidationFailed(id string, fields []string) {
	l.mu.Lock()
	l.metrics.ValidationFailures++
	l.mu.Unlock()

	l.LogEvent(EventValidationFailed, "Input rejected",
		slog.String("id", id),
		slog.Any("fields", fields),
	)
}

// LogScriptSaved 記錄腳本保存
func (l *Logger) LogScriptSaved(id, path string, bytes int) {
	l.mu.Lock()
	l.metrics.ScriptsSaved++
	l.mu.Unlock()

	l.LogEvent(EventScriptSaved, "Script saved",
		slog.String("id", id),
		slog.String("path", path),
		slog.Int("bytes", bytes),
	)
}

// LogScriptSaveFailed 記錄腳本保存失敗
func (l *Logger) LogScriptSaveFailed(id, path string, err error) {
	l.mu.Lock()
	l.metrics.SaveFailures++
	l.mu.Unlock()

	l.LogEvent(EventScriptSaveFailed, "Script save failed",
		slog.String("id", id),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}

// LogScriptCopied 記錄腳本複製到剪貼簿
func (l *Logger) LogScriptCopied(id string, bytes int) {
	l.LogEvent(EventScriptCopied, "Script copied to clipboard",
		slog.String("id", id),
		slog.Int("bytes", bytes),
	)
}

// LogProfileLoaded 記錄設定檔載入
func (l *Logger) LogProfileLoaded(path string, created bool) {
	l.LogEvent(EventProfileLoaded, "Profile loaded",
		slog.String("path", path),
		slog.Bool("created", created),
	)
}

// LogProfileSaved 記錄設定檔保存
func (l *Logger) LogProfileSaved(path string) {
	l.LogEvent(EventProfileSaved, "Profile saved",
		slog.String("path", path),
	)
}

// LogProfileFailed 記錄設定檔讀寫失敗
func (l *Logger) LogProfileFailed(path string, err error) {
	l.LogEvent(EventProfileFailed, "Profile read or write failed",
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}

// Metrics 獲取放號統計
func (l *Logger) Metrics() GenerationMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.metrics
}
