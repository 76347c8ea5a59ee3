package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"whirlpoolQuote/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "quotes.jsonl")
	s := NewJsonlStorage(path)
	quotedAt := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	first := []model.QuoteRecord{{RequestID: "a", Kind: model.KindSwap, AmountIn: "100", QuotedAt: quotedAt}}
	second := []model.QuoteRecord{
		{RequestID: "b", Kind: model.KindAddLiquidity, Liquidity: "7", QuotedAt: quotedAt},
		{RequestID: "c", Kind: model.KindSwap, Error: "insufficient liquidity", QuotedAt: quotedAt},
	}
	if err := s.PutQuotes(context.Background(), first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := s.PutQuotes(context.Background(), second); err != nil {
		t.Fatalf("put second: %v", err)
	}
	if err := s.PutQuotes(context.Background(), nil); err != nil {
		t.Fatalf("put empty: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	var rec model.QuoteRecord
	if err := json.Unmarshal([]byte(lines[2]), &rec); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if rec.RequestID != "c" || rec.Error != "insufficient liquidity" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if strings.Contains(lines[0], "max_token_a") {
		t.Fatalf("empty fields should be omitted: %s", lines[0])
	}
}

func TestJsonlWriter(t *testing.T) {
	var buf bytes.Buffer
	s := NewJsonlWriter(&buf)
	if err := s.PutQuotes(context.Background(), []model.QuoteRecord{{Kind: model.KindSwap}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasPrefix(buf.String(), `{"kind":"swap"`) || !strings.HasSuffix(buf.String(), "\n") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestReadRequests(t *testing.T) {
	input := `{"id":"s1","kind":"swap","mint":"So11111111111111111111111111111111111111112","amount":"1000","slippage":"0.01"}

{"kind":"add_liquidity","tick_lower":-128,"tick_upper":128,"mint":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","amount":"5","slippage":"0.005"}
`
	requests, err := ReadRequests(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read requests: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if requests[0].ID != "s1" || requests[0].Amount != "1000" {
		t.Fatalf("unexpected first request: %+v", requests[0])
	}
	if requests[1].ID != "line-3" {
		t.Fatalf("expected generated id line-3, got %q", requests[1].ID)
	}
	if requests[1].TickLower == nil || *requests[1].TickLower != -128 {
		t.Fatalf("unexpected tick lower: %v", requests[1].TickLower)
	}

	if _, err := ReadRequests(strings.NewReader("{not json}\n")); err == nil {
		t.Fatalf("expected parse error")
	}
}
