package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"CoverPool/internal/engine"
	"CoverPool/internal/observability"
)

// Worker drains the engine's persist channel and batch-writes to
// Postgres. It runs independently from the engine; the persist channel
// uses BLOCKING sends, so if this worker falls behind the engine stalls,
// guaranteeing no event is lost.
type Worker struct {
	writer       *LogWriter
	input        <-chan engine.Output
	batchSize    int
	flushTimeout time.Duration
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

func NewWorker(
	db *sql.DB,
	input <-chan engine.Output,
	batchSize int,
	flushTimeout time.Duration,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Worker {
	return &Worker{
		writer:       NewLogWriter(db),
		input:        input,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		metrics:      metrics,
		logger:       logger.With().Str("component", "persistence").Logger(),
	}
}

// Run batches incoming outputs and flushes when the batch fills or the
// flush timeout expires. Blocks until ctx is cancelled or the input
// channel closes; remaining rows are flushed on the way out.
func (w *Worker) Run(ctx context.Context) error {
	events := make([]EventRow, 0, w.batchSize)
	claims := make([]ClaimRow, 0, w.batchSize)

	timer := time.NewTimer(w.flushTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(events) > 0 {
				if err := w.flush(context.Background(), events, claims); err != nil {
					w.logger.Error().Err(err).Msg("final flush failed")
				}
			}
			return ctx.Err()

		case out, ok := <-w.input:
			if !ok {
				if len(events) > 0 {
					if err := w.flush(context.Background(), events, claims); err != nil {
						w.logger.Error().Err(err).Msg("final flush failed")
					}
				}
				return nil
			}

			events = append(events, EventRow{
				Sequence:   out.Envelope.Sequence,
				EventType:  out.Envelope.Type.String(),
				Account:    out.Envelope.Account,
				Payload:    MarshalPayload(out.Envelope.Payload),
				OccurredAt: out.Envelope.Timestamp,
			})
			if out.Claim != nil {
				claims = append(claims, ClaimRow{
					Sequence:    out.Envelope.Sequence,
					Account:     out.Claim.Account,
					Paid:        out.Claim.Paid,
					OraclePrice: out.Claim.OraclePrice,
					OccurredAt:  out.Claim.Timestamp,
				})
			}

			if len(events) >= w.batchSize {
				w.flushWithRetry(ctx, events, claims)
				events = events[:0]
				claims = claims[:0]
				timer.Reset(w.flushTimeout)
			}

		case <-timer.C:
			if len(events) > 0 {
				w.flushWithRetry(ctx, events, claims)
				events = events[:0]
				claims = claims[:0]
			}
			timer.Reset(w.flushTimeout)
		}
	}
}

// flushWithRetry retries with exponential backoff. The worker never
// drops a batch: it retries until the write succeeds or, on context
// cancellation, makes one final attempt with a background context.
func (w *Worker) flushWithRetry(ctx context.Context, events []EventRow, claims []ClaimRow) {
	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			w.logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Int("events", len(events)).
				Msg("persistence retry")
			select {
			case <-ctx.Done():
				if err := w.flush(context.Background(), events, claims); err != nil {
					w.logger.Error().Err(err).Msg("final flush on shutdown failed")
				}
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		if err := w.flush(ctx, events, claims); err == nil {
			if attempt > 0 {
				w.logger.Info().Int("retries", attempt).Msg("persistence flush recovered")
			}
			return
		} else if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("retry").Inc()
		}
	}
}

// flush writes events and claims in a single transaction.
func (w *Worker) flush(ctx context.Context, events []EventRow, claims []ClaimRow) error {
	start := time.Now()

	tx, err := w.writer.db.BeginTx(ctx, nil)
	if err != nil {
		w.countError("tx_begin")
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := w.writer.WriteEventBatch(ctx, tx, events); err != nil {
		w.countError("write_events")
		return fmt.Errorf("write events: %w", err)
	}
	if err := w.writer.WriteClaimBatch(ctx, tx, claims); err != nil {
		w.countError("write_claims")
		return fmt.Errorf("write claims: %w", err)
	}
	if err := tx.Commit(); err != nil {
		w.countError("tx_commit")
		return fmt.Errorf("commit: %w", err)
	}

	if w.metrics != nil {
		w.metrics.PersistBatchDur.Observe(time.Since(start).Seconds())
		w.metrics.PersistEventsWritten.Add(float64(len(events)))
		w.metrics.PersistClaimsWritten.Add(float64(len(claims)))
		w.metrics.PersistLastSequence.Set(float64(events[len(events)-1].Sequence))
	}
	return nil
}

func (w *Worker) countError(kind string) {
	if w.metrics != nil {
		w.metrics.PersistErrors.WithLabelValues(kind).Inc()
	}
}
