package quoter

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"whirlpoolQuote/internal/model"
	"whirlpoolQuote/internal/storage"
)

// BatchConfig holds runtime settings for a batch run.
type BatchConfig struct {
	Workers   int
	ChunkSize int
}

// BatchStats summarizes a batch run.
type BatchStats struct {
	Total  int
	Quoted int
	Failed int
}

// Runner quotes a list of requests concurrently and writes the results in
// request order.
type Runner struct {
	cfg     BatchConfig
	service *Service
	out     storage.QuoteSink
	errs    storage.QuoteSink
	logger  *zap.Logger
}

// NewRunner builds a Runner. Failed requests go to errs, or to out when errs
// is nil.
func NewRunner(cfg BatchConfig, service *Service, out, errs storage.QuoteSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errs == nil {
		errs = out
	}
	return &Runner{cfg: cfg, service: service, out: out, errs: errs, logger: logger}
}

// Run quotes every request. A request that fails is recorded and does not
// stop the batch; only context cancellation and sink failures do.
func (r *Runner) Run(ctx context.Context, requests []model.QuoteRequest) (BatchStats, error) {
	if r.service == nil {
		return BatchStats{}, fmt.Errorf("quote service is nil")
	}
	if r.out == nil {
		return BatchStats{}, fmt.Errorf("output sink is nil")
	}
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	chunkSize := r.cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 256
	}

	stats := BatchStats{Total: len(requests)}
	for from := 0; from < len(requests); from += chunkSize {
		to := from + chunkSize
		if to > len(requests) {
			to = len(requests)
		}
		chunk := requests[from:to]

		records := make([]model.QuoteRecord, len(chunk))
		failed := make([]bool, len(chunk))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, req := range chunk {
			i, req := i, req
			g.Go(func() error {
				rec, err := r.service.Quote(gctx, req)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return err
					}
					r.logger.Debug("quote failed", zap.String("request_id", req.ID), zap.String("kind", req.Kind), zap.Error(err))
					rec = ErrorRecord(req, err)
					failed[i] = true
				}
				records[i] = rec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return stats, fmt.Errorf("quote batch: %w", err)
		}

		var good, bad []model.QuoteRecord
		for i, rec := range records {
			if failed[i] {
				bad = append(bad, rec)
				continue
			}
			good = append(good, rec)
		}
		if err := r.out.PutQuotes(ctx, good); err != nil {
			return stats, fmt.Errorf("store quotes: %w", err)
		}
		if err := r.errs.PutQuotes(ctx, bad); err != nil {
			return stats, fmt.Errorf("store failed quotes: %w", err)
		}
		stats.Quoted += len(good)
		stats.Failed += len(bad)

		r.logger.Info("batch complete", zap.Int("from", from), zap.Int("to", to), zap.Int("quoted", len(good)), zap.Int("failed", len(bad)))
	}
	return stats, nil
}
