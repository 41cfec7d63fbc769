package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "order placed", Field{Key: "symbol", Value: "BTC/USD"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "order placed" {
		t.Errorf("msg = %v, want order placed", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["symbol"] != "BTC/USD" {
		t.Errorf("symbol = %v, want BTC/USD", entry["symbol"])
	}
	if entry["timestamp"] == nil {
		t.Error("timestamp missing")
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Debug(context.Background(), "debug msg")
	logger.Info(context.Background(), "info msg")

	if buf.Len() != 0 {
		t.Errorf("below-threshold levels produced output: %s", buf.String())
	}

	logger.Warn(context.Background(), "warn msg")
	if buf.Len() == 0 {
		t.Error("warn produced no output")
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "auth",
		Field{Key: "api_key", Value: "supersecret"},
		Field{Key: "symbol", Value: "ETH/USD"},
	)

	out := buf.String()
	if strings.Contains(out, "supersecret") {
		t.Error("api_key value leaked to log output")
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Error("redaction marker missing")
	}
	if !strings.Contains(out, "ETH/USD") {
		t.Error("non-sensitive field dropped")
	}
}

func TestLogger_WithCall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	scoped := logger.WithCall(CallMeta{Component: "binance", Operation: "place_order"})
	scoped.Info(context.Background(), "attempt")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["call.component"] != "binance" {
		t.Errorf("call.component = %v, want binance", entry["call.component"])
	}
	if entry["call.operation"] != "place_order" {
		t.Errorf("call.operation = %v, want place_order", entry["call.operation"])
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
