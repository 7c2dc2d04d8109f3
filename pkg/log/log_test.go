package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	contextPkg "BibliotecaAI/pkg/context"
)

func bufferedLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l, &buf
}

func TestErrorWithTraceIDUsesRequestID(t *testing.T) {
	l, buf := bufferedLogger()

	traceID := ErrorWithTraceID(l, Fields{"request_id": "01HZX"}, "recognition failed")
	if traceID != "01HZX" {
		t.Fatalf("expected request id as trace id, got %q", traceID)
	}
	out := buf.String()
	if !strings.Contains(out, "recognition failed") || !strings.Contains(out, `"trace_id":"01HZX"`) {
		t.Fatalf("expected message and trace id in output, got %q", out)
	}
}

func TestErrorWithTraceIDGeneratesUUID(t *testing.T) {
	l, _ := bufferedLogger()

	for _, fields := range []Fields{nil, {"request_id": "unknown"}, {"request_id": ""}} {
		traceID := ErrorWithTraceID(l, fields, "boom")
		if _, err := uuid.Parse(traceID); err != nil {
			t.Fatalf("expected UUID trace id for %v, got %q", fields, traceID)
		}
	}
}

func TestWithRequestID(t *testing.T) {
	l, buf := bufferedLogger()

	WithRequestID(contextPkg.WithRequestID(context.Background(), "req-42"), l).Info("hello")
	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Fatalf("expected request id field, got %q", buf.String())
	}

	entry := WithRequestID(context.Background(), l)
	if entry.Data["request_id"] != "unknown" {
		t.Fatalf("expected unknown request id, got %v", entry.Data["request_id"])
	}
}

func TestNewLoggerIsSingleton(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	if NewLogger() != NewLogger() {
		t.Fatal("expected the same logger instance")
	}
	if WithRequestID(context.Background(), nil).Logger != NewLogger() {
		t.Fatal("expected nil logger to fall back to the shared instance")
	}
}
