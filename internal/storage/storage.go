package storage

import (
	"context"

	"whirlpoolQuote/internal/model"
)

// QuoteSink receives quote records produced by the quoter.
type QuoteSink interface {
	PutQuotes(ctx context.Context, records []model.QuoteRecord) error
}

// MultiSink writes every batch to each sink in order and stops at the first
// failure.
type MultiSink []QuoteSink

func (m MultiSink) PutQuotes(ctx context.Context, records []model.QuoteRecord) error {
	for _, sink := range m {
		if err := sink.PutQuotes(ctx, records); err != nil {
			return err
		}
	}
	return nil
}
