package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestHookChainThreadsDataThrough(t *testing.T) {
	first := HookFuncs{
		Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			return ctx, km, append(data, 'a'), nil
		},
	}
	second := HookFuncs{
		Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			return ctx, km, append(data, 'b'), nil
		},
	}

	chain := NewHookChain(first, nil, second)
	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	if err != nil {
		t.Fatalf("BeforeHandle: %v", err)
	}
	if string(data) != "xab" {
		t.Errorf("data = %q, want %q", data, "xab")
	}
}

func TestHookChainBeforeErrorNotifiesAllHooks(t *testing.T) {
	boom := errors.New("boom")
	var notified []string

	ok := HookFuncs{
		Err: func(context.Context, string, kafka.Message, []byte, error) { notified = append(notified, "ok") },
	}
	failing := HookFuncs{
		Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			return ctx, km, data, boom
		},
		Err: func(context.Context, string, kafka.Message, []byte, error) { notified = append(notified, "failing") },
	}

	chain := NewHookChain(ok, failing)
	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(notified) != 2 {
		t.Errorf("OnError fan-out reached %d hooks, want 2", len(notified))
	}
}

func TestHookChainRecoversPanickingHook(t *testing.T) {
	panicky := HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("bad hook")
		},
	}

	chain := NewHookChain(panicky)
	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	if err == nil {
		t.Fatal("expected error from panicking hook")
	}
	var hookErr *HookError
	if !errors.As(err, &hookErr) || hookErr.Code != "ERR_PANIC" {
		t.Errorf("err = %v, want HookError ERR_PANIC", err)
	}

	// AfterHandle and OnError must also swallow panics.
	after := HookFuncs{
		After: func(context.Context, string, kafka.Message, []byte, error) { panic("after") },
		Err:   func(context.Context, string, kafka.Message, []byte, error) { panic("err") },
	}
	c2 := NewHookChain(after)
	c2.AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil)
	c2.OnError(context.Background(), "t", kafka.Message{}, nil, errors.New("x"))
}

func TestHookChainAfterHandleUnwindsInReverse(t *testing.T) {
	var order []string
	mk := func(name string) HookFuncs {
		return HookFuncs{
			After: func(context.Context, string, kafka.Message, []byte, error) { order = append(order, name) },
		}
	}

	chain := NewHookChain(mk("first"), mk("second"))
	chain.AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil)
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("after order = %v, want [second first]", order)
	}
}

func TestExtractTraceID(t *testing.T) {
	msg := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc-123")}}}
	if got := ExtractTraceID(msg); got != "abc-123" {
		t.Errorf("trace id = %q", got)
	}
	if got := ExtractTraceID(kafka.Message{}); got != "" {
		t.Errorf("missing header: got %q, want empty", got)
	}
}
