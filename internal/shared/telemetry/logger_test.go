package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func captureLines(t *testing.T, fn func()) []map[string]any {
	t.Helper()
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()
	fn()

	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestWriteStampsReservedFields(t *testing.T) {
	lines := captureLines(t, func() {
		Info("report.started", map[string]any{"report_id": "r-1", "msg": "caller override"})
	})
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	line := lines[0]
	if line["msg"] != "report.started" {
		t.Fatalf("reserved msg overwritten: %v", line["msg"])
	}
	if line["level"] != "info" || line["service"] != defaultService {
		t.Fatalf("unexpected level/service: %v", line)
	}
	if line["report_id"] != "r-1" {
		t.Fatalf("missing caller field: %v", line)
	}
}

func TestErrorValuesAreStringified(t *testing.T) {
	lines := captureLines(t, func() {
		Error("worker.report.failed", map[string]any{"error": errors.New("llm timeout")})
	})
	if lines[0]["error"] != "llm timeout" {
		t.Fatalf("expected error string, got %v", lines[0]["error"])
	}
}

func TestSetServiceAndWarn(t *testing.T) {
	SetService("sourcing-worker")
	defer SetService("")

	lines := captureLines(t, func() {
		Warn("http.error", nil)
	})
	if lines[0]["service"] != "sourcing-worker" || lines[0]["level"] != "warn" {
		t.Fatalf("unexpected line: %v", lines[0])
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-9")
	if got := RequestID(ctx); got != "req-9" {
		t.Fatalf("expected req-9, got %q", got)
	}
	if got := RequestID(WithRequestID(context.Background(), "")); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
	if got := RequestID(context.WithoutCancel(ctx)); got != "req-9" {
		t.Fatalf("expected id to survive WithoutCancel, got %q", got)
	}
}
