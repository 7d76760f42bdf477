package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"CoverPool/internal/oracle"
)

// FakeToken is an in-memory token ledger for tests. Balances are plain
// int64 in token base units.
type FakeToken struct {
	mu       sync.Mutex
	Pool     uuid.UUID
	balances map[uuid.UUID]int64

	// FailTransfers makes every transfer fail, for rollback tests.
	FailTransfers bool
	// OnTransfer runs inside every transfer before it applies, with the
	// caller's context, so tests can simulate token-side callbacks.
	OnTransfer func(ctx context.Context)
}

func NewFakeToken(pool uuid.UUID) *FakeToken {
	return &FakeToken{
		Pool:     pool,
		balances: make(map[uuid.UUID]int64),
	}
}

// Mint credits an account out of thin air.
func (f *FakeToken) Mint(account uuid.UUID, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[account] += amount
}

func (f *FakeToken) BalanceOf(ctx context.Context, holder uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[holder], nil
}

func (f *FakeToken) TransferFrom(ctx context.Context, payer, recipient uuid.UUID, amount int64) error {
	if f.OnTransfer != nil {
		f.OnTransfer(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailTransfers {
		return fmt.Errorf("transfer rejected")
	}
	if f.balances[payer] < amount {
		return fmt.Errorf("insufficient balance: have %d, need %d", f.balances[payer], amount)
	}
	f.balances[payer] -= amount
	f.balances[recipient] += amount
	return nil
}

// Transfer moves funds out of the pool account.
func (f *FakeToken) Transfer(ctx context.Context, recipient uuid.UUID, amount int64) error {
	return f.TransferFrom(ctx, f.Pool, recipient, amount)
}

// ScriptedOracle is a PriceSource returning a programmable round.
type ScriptedOracle struct {
	mu    sync.Mutex
	round oracle.Round
	err   error
}

func NewScriptedOracle(price, updatedAt int64) *ScriptedOracle {
	return &ScriptedOracle{
		round: oracle.Round{
			RoundID:         1,
			Price:           price,
			StartedAt:       updatedAt,
			UpdatedAt:       updatedAt,
			AnsweredInRound: 1,
		},
	}
}

func (s *ScriptedOracle) LatestRound(ctx context.Context) (oracle.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return oracle.Round{}, s.err
	}
	return s.round, nil
}

// SetPrice updates the answer, bumping the round.
func (s *ScriptedOracle) SetPrice(price, updatedAt int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round.RoundID++
	s.round.AnsweredInRound = s.round.RoundID
	s.round.Price = price
	s.round.StartedAt = updatedAt
	s.round.UpdatedAt = updatedAt
}

// SetRound replaces the full round, for staleness and incomplete-round
// scenarios.
func (s *ScriptedOracle) SetRound(r oracle.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round = r
}

// Fail makes every fetch return err; nil restores normal operation.
func (s *ScriptedOracle) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// StaticAccess is an AccessController backed by a fixed admin set.
type StaticAccess struct {
	Admins map[uuid.UUID]bool
}

func NewStaticAccess(admins ...uuid.UUID) *StaticAccess {
	set := make(map[uuid.UUID]bool, len(admins))
	for _, a := range admins {
		set[a] = true
	}
	return &StaticAccess{Admins: set}
}

func (s *StaticAccess) IsAdministrator(account uuid.UUID) bool {
	return s.Admins[account]
}

// TogglePauser is a Pauser flipped directly by tests.
type TogglePauser struct {
	mu     sync.Mutex
	paused bool
}

func (p *TogglePauser) SetPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = paused
}

func (p *TogglePauser) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}
