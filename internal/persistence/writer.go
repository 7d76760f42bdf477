package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EventRow is one row of cover_log.events.
type EventRow struct {
	Sequence   int64
	EventType  string
	Account    *uuid.UUID
	Payload    []byte // JSON-encoded event payload
	OccurredAt int64  // Unix seconds, engine clock
}

// ClaimRow is one row of cover_log.claims, keyed by the sequence of the
// settlement event that produced it.
type ClaimRow struct {
	Sequence    int64
	Account     uuid.UUID
	Paid        int64
	OraclePrice int64
	OccurredAt  int64
}

// LogWriter writes event and claim batches to Postgres with multi-row
// INSERT. ON CONFLICT DO NOTHING on the sequence key makes replayed
// batches idempotent.
type LogWriter struct {
	db *sql.DB
}

func NewLogWriter(db *sql.DB) *LogWriter {
	return &LogWriter{db: db}
}

// WriteEventBatch inserts events inside the given transaction.
func (w *LogWriter) WriteEventBatch(ctx context.Context, tx *sql.Tx, events []EventRow) error {
	if len(events) == 0 {
		return nil
	}

	query := `INSERT INTO cover_log.events
		(sequence, event_type, account, payload, occurred_at)
		VALUES `

	values := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*5)

	for i, e := range events {
		base := i * 5
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5,
		))
		var account interface{}
		if e.Account != nil {
			account = e.Account.String()
		}
		args = append(args, e.Sequence, e.EventType, account, e.Payload, e.OccurredAt)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteClaimBatch inserts claim records inside the given transaction.
func (w *LogWriter) WriteClaimBatch(ctx context.Context, tx *sql.Tx, claims []ClaimRow) error {
	if len(claims) == 0 {
		return nil
	}

	query := `INSERT INTO cover_log.claims
		(sequence, account, paid, oracle_price, occurred_at)
		VALUES `

	values := make([]string, 0, len(claims))
	args := make([]interface{}, 0, len(claims)*5)

	for i, c := range claims {
		base := i * 5
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5,
		))
		args = append(args, c.Sequence, c.Account.String(), c.Paid, c.OraclePrice, c.OccurredAt)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// MarshalPayload JSON-encodes an event payload for the payload column.
// A payload that cannot marshal stores as an empty object rather than
// failing the batch.
func MarshalPayload(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
