package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"CoverPool/internal/event"
	"CoverPool/internal/observability"
	"CoverPool/internal/oracle"
	"CoverPool/internal/params"
	"CoverPool/internal/policy"
	"CoverPool/internal/pricing"
	"CoverPool/internal/solvency"
	"CoverPool/internal/token"
)

// AccessController is the external administration capability.
type AccessController interface {
	IsAdministrator(account uuid.UUID) bool
}

// Pauser is the external process-wide pause capability. When set, Open
// and Settle refuse to execute.
type Pauser interface {
	Paused() bool
}

// Output is one emitted observable event, optionally carrying the claim
// record created by the same operation.
type Output struct {
	Envelope event.Envelope
	Claim    *policy.ClaimRecord
}

// Engine is the policy lifecycle and settlement core. State-changing
// operations execute one at a time in a total order: each one holds the
// operation lock for its full duration, including the single external
// fund transfer, so a concurrent caller blocks until its turn and then
// observes the earlier operation's effects. A re-entrant call from the
// token during the transfer carries the running operation's context and
// is rejected with ErrReentrantCall instead of deadlocking on the lock
// it already holds.
//
// Invariant: state mutation always precedes the external transfer, so a
// caller observing mid-operation state sees the already-updated policy.
type Engine struct {
	// opMu is the operation lock: held across every state-changing
	// operation, transfer included.
	opMu sync.Mutex

	// mu protects the ledger and parameters for concurrent readers.
	// Released around the external transfer so queries observe the
	// post-mutation state during the transfer window.
	mu sync.RWMutex

	ledger    *policy.Ledger
	params    params.Params
	validator *oracle.Validator
	token     token.Ledger

	poolAccount uuid.UUID
	access      AccessController
	pauser      Pauser
	keeper      uuid.UUID

	sequence atomic.Int64

	persistChan chan<- Output
	publishChan chan<- Output

	metrics *observability.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// Deps carries the engine's collaborators.
type Deps struct {
	Token       token.Ledger
	Validator   *oracle.Validator
	Access      AccessController
	Pauser      Pauser
	PoolAccount uuid.UUID

	// PersistChan uses BLOCKING sends: the engine stalls until the
	// persistence worker drains, so no event is lost.
	PersistChan chan<- Output

	// PublishChan uses NON-BLOCKING sends with drop-on-full: downstream
	// consumers can rebuild from the persisted event log.
	PublishChan chan<- Output

	Metrics *observability.Metrics
	Logger  zerolog.Logger
}

func New(deps Deps) *Engine {
	e := &Engine{
		ledger:      policy.NewLedger(),
		params:      params.Defaults(),
		validator:   deps.Validator,
		token:       deps.Token,
		poolAccount: deps.PoolAccount,
		access:      deps.Access,
		pauser:      deps.Pauser,
		persistChan: deps.PersistChan,
		publishChan: deps.PublishChan,
		metrics:     deps.Metrics,
		logger:      deps.Logger.With().Str("component", "engine").Logger(),
		now:         time.Now,
	}

	e.emit(&event.Initialized{
		PoolAccount: deps.PoolAccount,
		Timestamp:   e.now().Unix(),
	}, nil)

	return e
}

// SetClock overrides the time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// opKey marks a context whose call chain is already inside an engine
// operation. The token transfer is called with a marked context, so a
// callback re-entering the engine hands the marker back.
type opKey struct{}

// acquire takes the operation lock and returns the context the operation
// must pass to its external calls. A context already carrying the marker
// is a nested call from inside the running operation's transfer; it is
// rejected up front, since waiting on the lock would never return.
func (e *Engine) acquire(ctx context.Context) (context.Context, error) {
	if ctx.Value(opKey{}) != nil {
		return nil, ErrReentrantCall
	}
	e.opMu.Lock()
	return context.WithValue(ctx, opKey{}, struct{}{}), nil
}

func (e *Engine) release() {
	e.opMu.Unlock()
}

// emit assigns the next sequence and fans the envelope out. Only called
// while the operation lock is held, so assignment stays gap-free and
// ordered.
func (e *Engine) emit(evt event.Event, claim *policy.ClaimRecord) {
	seq := e.sequence.Add(1)
	out := Output{
		Envelope: event.Envelope{
			Sequence:  seq,
			Type:      evt.Type(),
			Account:   evt.Account(),
			Timestamp: evt.Unix(),
			Payload:   evt,
		},
		Claim: claim,
	}

	if e.metrics != nil {
		e.metrics.EventsEmitted.WithLabelValues(evt.Type().String()).Inc()
	}

	if e.persistChan != nil {
		// Blocking: backpressure from the persistence worker.
		e.persistChan <- out
	}

	if e.publishChan != nil {
		select {
		case e.publishChan <- out:
		default:
			if e.metrics != nil {
				e.metrics.PublishDrops.Inc()
			}
		}
	}
}

func (e *Engine) paused() bool {
	return e.pauser != nil && e.pauser.Paused()
}

func (e *Engine) limits() oracle.Limits {
	return oracle.Limits{
		StaleDataThreshold: e.params.StaleDataThreshold,
		MaxDeviation:       e.params.MaxOracleDeviation,
	}
}

// QuotePremium prices a prospective policy against the current primary
// oracle answer. Read-only; deterministic for a fixed oracle reading and
// parameter set.
func (e *Engine) QuotePremium(ctx context.Context, coverage, threshold, durationSec int64) (int64, error) {
	price, err := e.validator.CurrentPrice(ctx)
	if err != nil {
		return 0, err
	}

	e.mu.RLock()
	p := e.params
	e.mu.RUnlock()

	return pricing.Quote(coverage, threshold, durationSec, price, p)
}

// Open purchases a policy for account. All validation happens before the
// premium transfer; the policy is recorded first and rolled back if the
// transfer fails, so a reentrant observer can never see pre-mutation
// state with funds already moved.
func (e *Engine) Open(ctx context.Context, account uuid.UUID, coverage, threshold, durationSec int64) (*policy.Policy, error) {
	ctx, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer e.release()

	e.mu.Lock()

	if e.paused() {
		e.mu.Unlock()
		return nil, ErrPaused
	}
	if coverage <= 0 {
		e.mu.Unlock()
		e.rejected("invalid_coverage")
		return nil, ErrInvalidCoverage
	}
	if e.ledger.HasActive(account) {
		e.mu.Unlock()
		e.rejected("policy_exists")
		return nil, ErrPolicyExists
	}

	health := e.validator.CheckHealth(ctx, e.limits())
	e.observeOracle(health)
	if !health.Healthy {
		e.mu.Unlock()
		e.rejected("oracle_" + health.Reason)
		return nil, fmt.Errorf("%w: %s", ErrOracleUnhealthy, health.Reason)
	}

	premium, err := pricing.Quote(coverage, threshold, durationSec, health.Price, e.params)
	if err != nil {
		e.mu.Unlock()
		e.rejected("pricing")
		return nil, err
	}

	poolBalance, err := e.token.BalanceOf(ctx, e.poolAccount)
	if err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("read pool balance: %w", err)
	}
	if e.metrics != nil {
		e.metrics.PoolBalance.Set(float64(poolBalance))
	}

	ctrl := solvency.Controller{CapitalEfficiencyRatio: e.params.CapitalEfficiencyRatio}
	if !ctrl.CanAdmit(e.ledger.AggregateCoverage(), coverage, poolBalance, premium) {
		e.mu.Unlock()
		e.rejected("capacity")
		return nil, ErrInsufficientCapacity
	}

	nowUnix := e.now().Unix()
	pol := &policy.Policy{
		Account:        account,
		Premium:        premium,
		Coverage:       coverage,
		PriceThreshold: threshold,
		ExpiresAt:      nowUnix + durationSec,
		Active:         true,
	}

	prev, _ := e.ledger.Get(account)
	if err := e.ledger.Put(pol); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.updateGauges()
	e.mu.Unlock()

	// Single external interaction, after all state mutation.
	if err := e.token.TransferFrom(ctx, account, e.poolAccount, premium); err != nil {
		e.mu.Lock()
		e.ledger.Unput(pol, prev)
		e.updateGauges()
		e.mu.Unlock()
		return nil, fmt.Errorf("collect premium: %w: %v", token.ErrTransferFailed, err)
	}

	if e.metrics != nil {
		e.metrics.PoliciesOpened.Inc()
		e.metrics.PremiumsCollected.Add(float64(premium))
	}

	e.logger.Info().
		Str("account", account.String()).
		Int64("coverage", coverage).
		Int64("premium", premium).
		Int64("threshold", threshold).
		Int64("expires_at", pol.ExpiresAt).
		Msg("policy opened")

	e.emit(&event.PolicyCreated{
		Holder:         account,
		Premium:        premium,
		Coverage:       coverage,
		PriceThreshold: threshold,
		ExpiresAt:      pol.ExpiresAt,
		OraclePrice:    health.Price,
		Timestamp:      nowUnix,
	}, nil)

	cp := *pol
	return &cp, nil
}

func (e *Engine) rejected(reason string) {
	if e.metrics != nil {
		e.metrics.AdmissionsRejected.WithLabelValues(reason).Inc()
	}
}

func (e *Engine) observeOracle(h oracle.Health) {
	if e.metrics == nil {
		return
	}
	if h.Healthy {
		e.metrics.OracleChecks.WithLabelValues("healthy").Inc()
	} else {
		e.metrics.OracleChecks.WithLabelValues(h.Reason).Inc()
	}
}

// updateGauges refreshes the aggregate-coverage gauge. Callers hold mu.
func (e *Engine) updateGauges() {
	if e.metrics != nil {
		e.metrics.AggregateCoverage.Set(float64(e.ledger.AggregateCoverage()))
	}
}
