package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"CoverPool/internal/engine"
	"CoverPool/internal/params"
	"CoverPool/internal/policy"
)

// Service provides read-only access to live engine state and to the
// persisted event log. Live reads come from the engine directly; history
// pages come from Postgres. All responses carry as_of_sequence for
// freshness semantics.
type Service struct {
	engine *engine.Engine
	db     *sql.DB
}

func NewService(eng *engine.Engine, db *sql.DB) *Service {
	return &Service{engine: eng, db: db}
}

// PolicyResponse is the external policy view.
type PolicyResponse struct {
	Account        uuid.UUID `json:"account"`
	Premium        int64     `json:"premium"`
	Coverage       int64     `json:"coverage"`
	PriceThreshold int64     `json:"price_threshold"`
	ExpiresAt      int64     `json:"expires_at"`
	Active         bool      `json:"active"`
	AsOfSequence   int64     `json:"as_of_sequence"`
}

// PoolResponse is the external pool summary.
type PoolResponse struct {
	AggregateCoverage int64         `json:"aggregate_coverage"`
	ExcessFunds       int64         `json:"excess_funds"`
	ActivePolicyCount int           `json:"active_policy_count"`
	ClaimHistoryCount int           `json:"claim_history_count"`
	Parameters        params.Params `json:"parameters"`
	AsOfSequence      int64         `json:"as_of_sequence"`
}

// ClaimResponse is one settlement history entry.
type ClaimResponse struct {
	Sequence    int64     `json:"sequence"`
	Account     uuid.UUID `json:"account"`
	Paid        int64     `json:"paid"`
	OraclePrice int64     `json:"oracle_price"`
	OccurredAt  int64     `json:"occurred_at"`
}

// EventResponse is one persisted event log entry.
type EventResponse struct {
	Sequence   int64           `json:"sequence"`
	EventType  string          `json:"event_type"`
	Account    *uuid.UUID      `json:"account,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt int64           `json:"occurred_at"`
}

// GetPolicy returns the account's policy record, active or not.
func (s *Service) GetPolicy(account uuid.UUID) (*PolicyResponse, error) {
	p, ok := s.engine.GetPolicy(account)
	if !ok {
		return nil, fmt.Errorf("no policy for %s", account)
	}
	return &PolicyResponse{
		Account:        p.Account,
		Premium:        p.Premium,
		Coverage:       p.Coverage,
		PriceThreshold: p.PriceThreshold,
		ExpiresAt:      p.ExpiresAt,
		Active:         p.Active,
		AsOfSequence:   s.engine.Sequence(),
	}, nil
}

// GetPool returns the pool summary.
func (s *Service) GetPool(ctx context.Context) (*PoolResponse, error) {
	excess, err := s.engine.ExcessFunds(ctx)
	if err != nil {
		return nil, fmt.Errorf("excess funds: %w", err)
	}
	return &PoolResponse{
		AggregateCoverage: s.engine.AggregateCoverage(),
		ExcessFunds:       excess,
		ActivePolicyCount: s.engine.ActivePolicyCount(),
		ClaimHistoryCount: s.engine.ClaimHistoryCount(),
		Parameters:        s.engine.Params(),
		AsOfSequence:      s.engine.Sequence(),
	}, nil
}

// LiveClaims returns the in-memory settlement history.
func (s *Service) LiveClaims() []policy.ClaimRecord {
	return s.engine.Claims()
}

// ListClaims pages the persisted settlement history for one account,
// newest first.
func (s *Service) ListClaims(ctx context.Context, account uuid.UUID, limit, offset int) ([]ClaimResponse, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence, account, paid, oracle_price, occurred_at
		FROM cover_log.claims
		WHERE account = $1
		ORDER BY sequence DESC
		LIMIT $2 OFFSET $3
	`, account.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []ClaimResponse
	for rows.Next() {
		var c ClaimResponse
		var acct string
		if err := rows.Scan(&c.Sequence, &acct, &c.Paid, &c.OraclePrice, &c.OccurredAt); err != nil {
			return nil, err
		}
		if c.Account, err = uuid.Parse(acct); err != nil {
			return nil, fmt.Errorf("parse account %q: %w", acct, err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// ListEvents pages the persisted event log from a starting sequence.
func (s *Service) ListEvents(ctx context.Context, fromSequence int64, limit int) ([]EventResponse, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence, event_type, account, payload, occurred_at
		FROM cover_log.events
		WHERE sequence >= $1
		ORDER BY sequence ASC
		LIMIT $2
	`, fromSequence, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventResponse
	for rows.Next() {
		var e EventResponse
		var acct sql.NullString
		if err := rows.Scan(&e.Sequence, &e.EventType, &acct, (*[]byte)(&e.Payload), &e.OccurredAt); err != nil {
			return nil, err
		}
		if acct.Valid {
			id, err := uuid.Parse(acct.String)
			if err != nil {
				return nil, fmt.Errorf("parse account %q: %w", acct.String, err)
			}
			e.Account = &id
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
