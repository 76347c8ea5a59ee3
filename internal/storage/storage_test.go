package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"whirlpoolQuote/internal/model"
)

type failingSink struct{ calls int }

func (f *failingSink) PutQuotes(context.Context, []model.QuoteRecord) error {
	f.calls++
	return errors.New("disk full")
}

func TestMultiSinkWritesEach(t *testing.T) {
	var a, b bytes.Buffer
	sink := MultiSink{NewJsonlWriter(&a), NewJsonlWriter(&b)}
	records := []model.QuoteRecord{{RequestID: "x", Kind: model.KindSwap}}
	if err := sink.PutQuotes(context.Background(), records); err != nil {
		t.Fatalf("put: %v", err)
	}
	for name, buf := range map[string]*bytes.Buffer{"a": &a, "b": &b} {
		if !strings.Contains(buf.String(), `"request_id":"x"`) {
			t.Fatalf("sink %s missing record: %q", name, buf.String())
		}
	}
}

func TestMultiSinkStopsOnError(t *testing.T) {
	failing := &failingSink{}
	after := &failingSink{}
	sink := MultiSink{failing, after}
	if err := sink.PutQuotes(context.Background(), nil); err == nil {
		t.Fatalf("expected error")
	}
	if failing.calls != 1 || after.calls != 0 {
		t.Fatalf("calls = %d, %d", failing.calls, after.calls)
	}
}
