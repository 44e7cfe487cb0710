package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/ErlanBelekov/uptask-api/internal/log"
	"github.com/ErlanBelekov/uptask-api/internal/reqctx"
)

func record(t *testing.T, ctx context.Context) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(log.NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")
	logger.InfoContext(ctx, "hello")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return out
}

func TestContextHandler_AddsIdentity(t *testing.T) {
	ctx := reqctx.WithUserID(reqctx.WithRequestID(context.Background(), "req-1"), "user-1")

	out := record(t, ctx)

	if out["request_id"] != "req-1" || out["user_id"] != "user-1" {
		t.Errorf("record = %v", out)
	}
	if out["component"] != "test" {
		t.Errorf("WithAttrs lost: %v", out)
	}
}

func TestContextHandler_AnonymousRequest(t *testing.T) {
	out := record(t, reqctx.WithRequestID(context.Background(), "req-1"))

	if _, ok := out["user_id"]; ok {
		t.Errorf("user_id set for anonymous request: %v", out)
	}
	if out["request_id"] != "req-1" {
		t.Errorf("record = %v", out)
	}
}
