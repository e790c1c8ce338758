package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestDeliverHandsDrainedMessagesToHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var (
		gotID  string
		gotErr error
	)
	q := &Queue{subject: "documents.ingested"}
	q.deliver(ctx, &nats.Msg{Subject: q.subject, Data: []byte(" doc-1\n")}, func(handlerCtx context.Context, documentID string) error {
		gotID = documentID
		gotErr = handlerCtx.Err()
		return errors.New("logged, not returned")
	})

	if gotID != "doc-1" {
		t.Fatalf("expected trimmed document id, got %q", gotID)
	}
	if gotErr != nil {
		t.Fatalf("drained message must get a live context, got %v", gotErr)
	}
}

func TestDeliverSkipsEmptyMessages(t *testing.T) {
	q := &Queue{subject: "documents.ingested"}
	called := false
	q.deliver(context.Background(), &nats.Msg{Subject: q.subject, Data: []byte("  ")}, func(context.Context, string) error {
		called = true
		return nil
	})
	if called {
		t.Fatalf("handler must not run for an empty message")
	}
}
