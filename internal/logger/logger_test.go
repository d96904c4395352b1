package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  *LoggingConfig
		wantErr bool
	}{
		{
			name: "valid text logger",
			config: &LoggingConfig{
				Level:  "info",
				Format: "text",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "valid json logger",
			config: &LoggingConfig{
				Level:  "debug",
				Format: "json",
				Output: "stderr",
			},
			wantErr: false,
		},
		{
			name: "discard output",
			config: &LoggingConfig{
				Level:  "warn",
				Format: "text",
				Output: "discard",
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			config: &LoggingConfig{
				Level:  "invalid",
				Format: "text",
				Output: "stdout",
			},
			wantErr: true,
		},
		{
			name: "invalid format",
			config: &LoggingConfig{
				Level:  "info",
				Format: "invalid",
				Output: "stdout",
			},
			wantErr: true,
		},
		{
			name: "invalid output",
			config: &LoggingConfig{
				Level:  "info",
				Format: "text",
				Output: "invalid",
			},
			wantErr: true,
		},
		{
			name: "file output without path",
			config: &LoggingConfig{
				Level:  "info",
				Format: "text",
				Output: "file",
			},
			wantErr: true,
		},
		{
			name:    "nil config uses defaults",
			config:  nil,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Errorf("NewLogger() returned nil logger without error")
			}
		})
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewLogger(&LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     "file",
		FilePath:   path,
		MaxSize:    5,
		MaxBackups: 5,
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.LogScriptSaved("abc", "/tmp/out.txt", 42)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"event":"script_saved"`) {
		t.Errorf("log file = %s, want script_saved event", data)
	}
}

func TestLogEvent(t *testing.T) {
	// 創建一個緩衝區來捕獲日誌輸出
	var buf bytes.Buffer

	logger, err := NewWithWriter(&buf, "text", slog.LevelDebug)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}

	tests := []struct {
		name      string
		event     GenerationEvent
		message   string
		attrs     []slog.Attr
		wantText  string
		wantLevel string
	}{
		{
			name:      "generate success event",
			event:     EventGenerateSuccess,
			message:   "Script generated",
			attrs:     []slog.Attr{slog.Int("numbers", 10)},
			wantText:  "generate_success",
			wantLevel: "level=INFO",
		},
		{
			name:      "generate failed event",
			event:     EventGenerateFailed,
			message:   "Generation failed",
			attrs:     []slog.Attr{slog.String("error", "bad template")},
			wantText:  "generate_failed",
			wantLevel: "level=ERROR",
		},
		{
			name:      "validation failed event",
			event:     EventValidationFailed,
			message:   "Input rejected",
			wantText:  "validation_failed",
			wantLevel: "level=WARN",
		},
		{
			name:      "profile loaded event",
			event:     EventProfileLoaded,
			message:   "Profile loaded",
			wantText:  "profile_loaded",
			wantLevel: "level=DEBUG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			logger.LogEvent(tt.event, tt.message, tt.attrs...)

			output := buf.String()
			if !strings.Contains(output, tt.wantText) {
				t.Errorf("LogEvent() output = %v, want to contain %v", output, tt.wantText)
			}
			if !strings.Contains(output, tt.message) {
				t.Errorf("LogEvent() output = %v, want to contain message %v", output, tt.message)
			}
			if !strings.Contains(output, tt.wantLevel) {
				t.Errorf("LogEvent() output = %v, want level %v", output, tt.wantLevel)
			}
		})
	}
}

func TestGenerationMetrics(t *testing.T) {
	logger := Discard()

	// 測試初始狀態
	metrics := logger.Metrics()
	if metrics.TotalGenerations != 0 {
		t.Errorf("Initial TotalGenerations = %v, want 0", metrics.TotalGenerations)
	}

	logger.LogGenerateStart("a", "+861088889001", 10)
	logger.LogGenerateSuccess("a", 10, 4096, 3*time.Millisecond)

	metrics = logger.Metrics()
	if metrics.TotalGenerations != 1 {
		t.Errorf("TotalGenerations = %v, want 1", metrics.TotalGenerations)
	}
	if metrics.SuccessfulGenerations != 1 {
		t.Errorf("SuccessfulGenerations = %v, want 1", metrics.SuccessfulGenerations)
	}
	if metrics.NumbersGenerated != 10 {
		t.Errorf("NumbersGenerated = %v, want 10", metrics.NumbersGenerated)
	}
	if metrics.LastGenerationTime.IsZero() {
		t.Errorf("LastGenerationTime not set")
	}

	logger.LogGenerateFailed("b", errors.New("bad template"))
	logger.LogValidationFailed("c", []string{"start_number"})
	logger.LogScriptSaveFailed("a", "/nope", errors.New("permission denied"))

	metrics = logger.Metrics()
	if metrics.FailedGenerations != 1 {
		t.Errorf("FailedGenerations = %v, want 1", metrics.FailedGenerations)
	}
	if metrics.ValidationFailures != 1 {
		t.Errorf("ValidationFailures = %v, want 1", metrics.ValidationFailures)
	}
	if metrics.SaveFailures != 1 {
		t.Errorf("SaveFailures = %v, want 1", metrics.SaveFailures)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		levelStr  string
		wantLevel slog.Level
		wantErr   bool
	}{
		{"debug level", "debug", slog.LevelDebug, false},
		{"info level", "info", slog.LevelInfo, false},
		{"warn level", "warn", slog.LevelWarn, false},
		{"warning level", "warning", slog.LevelWarn, false},
		{"error level", "error", slog.LevelError, false},
		{"invalid level", "invalid", slog.LevelInfo, true},
		{"empty level", "", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLevel, err := parseLogLevel(tt.levelStr)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if gotLevel != tt.wantLevel {
				t.Errorf("parseLogLevel() = %v, want %v", gotLevel, tt.wantLevel)
			}
		})
	}
}

func BenchmarkLogEvent(b *testing.B) {
	logger, err := NewLogger(&LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "discard",
	})
	if err != nil {
		b.Fatalf("Failed to create logger: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.LogEvent(EventGenerateSuccess, "Test message",
			slog.String("id", "bench"),
			slog.Int("numbers", i),
		)
	}
}
