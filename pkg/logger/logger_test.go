package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithPaymentReference(ctx, "pi_abc")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"request_id\"")) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("\"payment_reference\"")) {
		t.Fatalf("expected payment_reference to be preserved; entry=%s", buf.String())
	}
}

func TestLoggerNestedFieldsAccumulate(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithUserID(context.Background(), "u-1")
	ctx = log.WithOrderID(ctx, "o-1")
	log.Info(ctx, "settled")

	for _, field := range []string{"\"user_id\"", "\"order_id\""} {
		if !bytes.Contains(buf.Bytes(), []byte(field)) {
			t.Fatalf("expected %s in entry %s", field, buf.String())
		}
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if lvl := ParseLevel("nonsense"); lvl.String() != "info" {
		t.Fatalf("expected info fallback, got %s", lvl)
	}
	if lvl := ParseLevel("warn"); lvl.String() != "warn" {
		t.Fatalf("expected warn, got %s", lvl)
	}
}
