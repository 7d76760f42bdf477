package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"CoverPool/internal/engine"
	"CoverPool/internal/event"
	"CoverPool/internal/persistence"
	"CoverPool/internal/policy"
	"CoverPool/internal/testutil"
)

func claimOutput(seq int64, account uuid.UUID, paid int64) engine.Output {
	rec := &policy.ClaimRecord{
		Account:     account,
		Paid:        paid,
		Timestamp:   1_700_000_000 + seq,
		OraclePrice: 2_600,
	}
	return engine.Output{
		Envelope: event.Envelope{
			Sequence:  seq,
			Type:      event.TypeClaimProcessed,
			Account:   &account,
			Timestamp: rec.Timestamp,
			Payload: &event.ClaimProcessed{
				Holder:      account,
				Paid:        paid,
				OraclePrice: rec.OraclePrice,
				Timestamp:   rec.Timestamp,
			},
		},
		Claim: rec,
	}
}

func TestWorker_WritesBatches(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	m := persistence.NewMigrator(db, "../../migrations", zerolog.Nop())
	if err := m.Up(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	input := make(chan engine.Output, 16)
	w := persistence.NewWorker(db, input, 4, 20*time.Millisecond, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	account := uuid.New()
	for seq := int64(1); seq <= 10; seq++ {
		input <- claimOutput(seq, account, 100*seq)
	}

	// Let the batch and timer flushes drain everything, then stop.
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	var events, claims int
	if err := db.QueryRow("SELECT COUNT(*) FROM cover_log.events").Scan(&events); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM cover_log.claims").Scan(&claims); err != nil {
		t.Fatalf("count claims: %v", err)
	}
	if events != 10 {
		t.Errorf("events written = %d, want 10", events)
	}
	if claims != 10 {
		t.Errorf("claims written = %d, want 10", claims)
	}
}

func TestWriter_ReplayIsIdempotent(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	m := persistence.NewMigrator(db, "../../migrations", zerolog.Nop())
	if err := m.Up(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	writer := persistence.NewLogWriter(db)
	account := uuid.New()
	rows := []persistence.EventRow{
		{Sequence: 1, EventType: "PolicyCreated", Account: &account, Payload: []byte(`{}`), OccurredAt: 1_700_000_000},
		{Sequence: 2, EventType: "ClaimProcessed", Account: &account, Payload: []byte(`{}`), OccurredAt: 1_700_000_001},
	}

	writeBatch := func() {
		tx, err := db.Begin()
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := writer.WriteEventBatch(context.Background(), tx, rows); err != nil {
			tx.Rollback()
			t.Fatalf("write: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	// A crash between flush and channel ack replays the batch; the
	// sequence key must absorb the duplicate.
	writeBatch()
	writeBatch()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM cover_log.events").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("events after replay = %d, want 2", count)
	}
}
