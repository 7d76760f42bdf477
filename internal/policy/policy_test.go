package policy_test

import (
	"testing"

	"github.com/google/uuid"

	"CoverPool/internal/policy"
)

func activePolicy(account uuid.UUID, coverage int64) *policy.Policy {
	return &policy.Policy{
		Account:        account,
		Premium:        100,
		Coverage:       coverage,
		PriceThreshold: 2700,
		ExpiresAt:      2_000_000_000,
		Active:         true,
	}
}

func mustPut(t *testing.T, l *policy.Ledger, p *policy.Policy) {
	t.Helper()
	if err := l.Put(p); err != nil {
		t.Fatalf("put: %v", err)
	}
}

func checkAggregate(t *testing.T, l *policy.Ledger, want int64) {
	t.Helper()
	if got := l.AggregateCoverage(); got != want {
		t.Errorf("aggregate = %d, want %d", got, want)
	}
	if err := l.CheckAggregate(); err != nil {
		t.Errorf("aggregate drift: %v", err)
	}
}

func TestPut_GrowsAggregate(t *testing.T) {
	l := policy.NewLedger()
	a, b := uuid.New(), uuid.New()

	mustPut(t, l, activePolicy(a, 1_000))
	mustPut(t, l, activePolicy(b, 250))
	checkAggregate(t, l, 1_250)

	if !l.HasActive(a) || !l.HasActive(b) {
		t.Error("accounts should hold active policies")
	}
}

func TestPut_RejectsSecondActive(t *testing.T) {
	l := policy.NewLedger()
	a := uuid.New()
	mustPut(t, l, activePolicy(a, 1_000))

	if err := l.Put(activePolicy(a, 500)); err == nil {
		t.Error("second active policy should be rejected")
	}
	checkAggregate(t, l, 1_000)
}

func TestPut_OverwritesInactiveRecord(t *testing.T) {
	l := policy.NewLedger()
	a := uuid.New()
	first := activePolicy(a, 1_000)
	mustPut(t, l, first)
	l.Deactivate(first)

	mustPut(t, l, activePolicy(a, 500))
	checkAggregate(t, l, 500)

	p, ok := l.Get(a)
	if !ok || p.Coverage != 500 {
		t.Errorf("record = %+v, want fresh 500 policy", p)
	}
}

func TestPut_RejectsNonPositiveCoverage(t *testing.T) {
	l := policy.NewLedger()
	if err := l.Put(activePolicy(uuid.New(), 0)); err == nil {
		t.Error("zero coverage should be rejected")
	}
	if err := l.Put(activePolicy(uuid.New(), -1)); err == nil {
		t.Error("negative coverage should be rejected")
	}
}

func TestUnput_RemovesFreshEntry(t *testing.T) {
	l := policy.NewLedger()
	a := uuid.New()
	p := activePolicy(a, 1_000)
	mustPut(t, l, p)

	l.Unput(p, nil)
	checkAggregate(t, l, 0)
	if _, ok := l.Get(a); ok {
		t.Error("entry should be gone after Unput with no prior record")
	}
}

func TestUnput_RestoresPriorInactiveRecord(t *testing.T) {
	l := policy.NewLedger()
	a := uuid.New()
	prior := activePolicy(a, 1_000)
	mustPut(t, l, prior)
	l.Deactivate(prior)

	replacement := activePolicy(a, 500)
	mustPut(t, l, replacement)
	l.Unput(replacement, prior)

	checkAggregate(t, l, 0)
	p, ok := l.Get(a)
	if !ok || p != prior {
		t.Error("prior inactive record should be back in place")
	}
}

func TestDeactivateReactivate(t *testing.T) {
	l := policy.NewLedger()
	a := uuid.New()
	p := activePolicy(a, 1_000)
	mustPut(t, l, p)

	l.Deactivate(p)
	checkAggregate(t, l, 0)
	if l.HasActive(a) {
		t.Error("policy still reported active")
	}

	// Deactivating twice must not double-subtract.
	l.Deactivate(p)
	checkAggregate(t, l, 0)

	l.Reactivate(p)
	checkAggregate(t, l, 1_000)
	l.Reactivate(p)
	checkAggregate(t, l, 1_000)
}

func TestReduceCoverage(t *testing.T) {
	l := policy.NewLedger()
	p := activePolicy(uuid.New(), 1_000)
	mustPut(t, l, p)

	if err := l.ReduceCoverage(p, 400); err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if p.Coverage != 600 {
		t.Errorf("coverage = %d, want 600", p.Coverage)
	}
	checkAggregate(t, l, 600)

	// A payout that moves nothing is not a partial settlement.
	if err := l.ReduceCoverage(p, 0); err == nil {
		t.Error("zero reduce should be rejected")
	}
	checkAggregate(t, l, 600)

	// A payout equal to the full coverage is not partial.
	if err := l.ReduceCoverage(p, 600); err == nil {
		t.Error("reduce by full coverage should be rejected")
	}
	if err := l.ReduceCoverage(p, -1); err == nil {
		t.Error("negative reduce should be rejected")
	}
	checkAggregate(t, l, 600)
}

func TestRestoreCoverage(t *testing.T) {
	l := policy.NewLedger()
	p := activePolicy(uuid.New(), 1_000)
	mustPut(t, l, p)

	if err := l.ReduceCoverage(p, 400); err != nil {
		t.Fatalf("reduce: %v", err)
	}
	l.RestoreCoverage(p, 400)
	if p.Coverage != 1_000 {
		t.Errorf("coverage = %d after restore, want 1000", p.Coverage)
	}
	checkAggregate(t, l, 1_000)
}

func TestIsExpired_BoundaryInclusive(t *testing.T) {
	p := activePolicy(uuid.New(), 1_000)
	p.ExpiresAt = 500

	if p.IsExpired(499) {
		t.Error("one second before expiry should not be expired")
	}
	if !p.IsExpired(500) {
		t.Error("the expiry instant itself counts as expired")
	}
	if !p.IsExpired(501) {
		t.Error("past expiry should be expired")
	}
}

func TestClaims_HistoryIsCopied(t *testing.T) {
	l := policy.NewLedger()
	a := uuid.New()
	l.AppendClaim(policy.ClaimRecord{Account: a, Paid: 100, Timestamp: 1, OraclePrice: 2600})
	l.AppendClaim(policy.ClaimRecord{Account: a, Paid: 50, Timestamp: 2, OraclePrice: 2500})

	if l.ClaimCount() != 2 {
		t.Fatalf("claim count = %d, want 2", l.ClaimCount())
	}

	claims := l.Claims()
	claims[0].Paid = 999
	if l.Claims()[0].Paid != 100 {
		t.Error("mutating the returned slice must not touch the history")
	}
}

func TestActiveAccounts(t *testing.T) {
	l := policy.NewLedger()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	mustPut(t, l, activePolicy(a, 100))
	pb := activePolicy(b, 200)
	mustPut(t, l, pb)
	mustPut(t, l, activePolicy(c, 300))
	l.Deactivate(pb)

	got := l.ActiveAccounts()
	if len(got) != 2 {
		t.Fatalf("active accounts = %d, want 2", len(got))
	}
	seen := map[uuid.UUID]bool{}
	for _, acct := range got {
		seen[acct] = true
	}
	if !seen[a] || !seen[c] || seen[b] {
		t.Errorf("active set = %v, want {%s, %s}", got, a, c)
	}
}
