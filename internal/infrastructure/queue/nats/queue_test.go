package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestHandleRequestSurvivesCanceledSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var (
		handled bool
		replies []string
	)
	msg := &nats.Msg{Subject: "shipments.validate", Reply: "_INBOX.1", Data: []byte(`{"documents":[]}`)}
	handleRequest(ctx, msg, func(handlerCtx context.Context, payload []byte) error {
		handled = true
		if handlerCtx.Err() != nil {
			t.Fatalf("handler context canceled during drain: %v", handlerCtx.Err())
		}
		if string(payload) != `{"documents":[]}` {
			t.Fatalf("unexpected payload %q", payload)
		}
		return nil
	}, func(body []byte) error {
		replies = append(replies, string(body))
		return nil
	})

	if !handled {
		t.Fatalf("drained message was dropped")
	}
	if len(replies) != 1 || replies[0] != `{"status":"accepted"}` {
		t.Fatalf("unexpected replies %v", replies)
	}
}

func TestHandleRequestRepliesWithError(t *testing.T) {
	var replies []string
	msg := &nats.Msg{Subject: "shipments.validate", Reply: "_INBOX.2", Data: []byte("{}")}
	handleRequest(context.Background(), msg, func(context.Context, []byte) error {
		return errors.New("documents: required")
	}, func(body []byte) error {
		replies = append(replies, string(body))
		return nil
	})
	if len(replies) != 1 || replies[0] != `{"error":"documents: required"}` {
		t.Fatalf("unexpected replies %v", replies)
	}
}

func TestHandleRequestWithoutReplySubject(t *testing.T) {
	calls := 0
	msg := &nats.Msg{Subject: "shipments.validate", Data: []byte("{}")}
	handleRequest(context.Background(), msg, func(context.Context, []byte) error {
		return nil
	}, func([]byte) error {
		calls++
		return nil
	})
	if calls != 0 {
		t.Fatalf("fire-and-forget messages must not be answered")
	}
}
