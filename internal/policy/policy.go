package policy

import (
	"fmt"

	"github.com/google/uuid"
)

// Policy is one account's insurance contract record. At most one active
// policy per account; an inactive record may be overwritten by a new
// purchase, never deleted.
type Policy struct {
	Account        uuid.UUID
	Premium        int64 // Token precision
	Coverage       int64 // Token precision; reduced in place on partial payout
	PriceThreshold int64 // Oracle precision; claims valid strictly below
	ExpiresAt      int64 // Unix seconds
	Active         bool
}

// IsExpired reports whether the policy has passed its expiration relative
// to nowUnix. Expiration is enforced lazily on access; a policy can remain
// nominally active in storage past its expiration until touched.
func (p *Policy) IsExpired(nowUnix int64) bool {
	return nowUnix >= p.ExpiresAt
}

// ClaimRecord is one append-only settlement entry: created exactly once per
// successful full or partial payout, never mutated or removed.
type ClaimRecord struct {
	Account     uuid.UUID
	Paid        int64
	Timestamp   int64 // Unix seconds
	OraclePrice int64 // Price observed at settlement
}

// Ledger owns the per-account policy records, the running aggregate of
// active coverage, and the claim history. Not safe for concurrent use:
// the settlement engine serializes all access.
type Ledger struct {
	policies  map[uuid.UUID]*Policy
	aggregate int64
	claims    []ClaimRecord
}

func NewLedger() *Ledger {
	return &Ledger{
		policies: make(map[uuid.UUID]*Policy),
	}
}

// Get returns the account's policy record, active or not.
func (l *Ledger) Get(account uuid.UUID) (*Policy, bool) {
	p, ok := l.policies[account]
	return p, ok
}

// HasActive reports whether the account currently holds an active policy.
func (l *Ledger) HasActive(account uuid.UUID) bool {
	p, ok := l.policies[account]
	return ok && p.Active
}

// Put records a newly purchased policy and grows the aggregate. The caller
// must have verified no active policy exists for the account.
func (l *Ledger) Put(p *Policy) error {
	if existing, ok := l.policies[p.Account]; ok && existing.Active {
		return fmt.Errorf("active policy already exists for %s", p.Account)
	}
	if p.Coverage <= 0 {
		return fmt.Errorf("coverage must be positive, got %d", p.Coverage)
	}
	l.policies[p.Account] = p
	l.aggregate += p.Coverage
	return nil
}

// Unput undoes a Put that could not complete, restoring the previous
// record (an inactive prior policy) or removing the entry entirely.
func (l *Ledger) Unput(p *Policy, prev *Policy) {
	if p.Active {
		l.aggregate -= p.Coverage
	}
	if prev != nil {
		l.policies[p.Account] = prev
	} else {
		delete(l.policies, p.Account)
	}
}

// Deactivate marks the policy inactive and shrinks the aggregate by its
// current coverage. Used by both full settlement and expiration.
func (l *Ledger) Deactivate(p *Policy) {
	if !p.Active {
		return
	}
	p.Active = false
	l.aggregate -= p.Coverage
}

// Reactivate undoes a Deactivate that could not complete.
func (l *Ledger) Reactivate(p *Policy) {
	if p.Active {
		return
	}
	p.Active = true
	l.aggregate += p.Coverage
}

// ReduceCoverage shrinks an active policy's coverage after a partial
// payout. The policy stays active with the remainder claimable. The
// payout must actually move funds: a drained pool fails the claim
// upstream instead of recording a payout of nothing.
func (l *Ledger) ReduceCoverage(p *Policy, paid int64) error {
	if paid <= 0 || paid >= p.Coverage {
		return fmt.Errorf("partial payout %d out of range (0, %d)", paid, p.Coverage)
	}
	p.Coverage -= paid
	l.aggregate -= paid
	return nil
}

// RestoreCoverage undoes a ReduceCoverage that could not complete.
func (l *Ledger) RestoreCoverage(p *Policy, paid int64) {
	p.Coverage += paid
	l.aggregate += paid
}

// AppendClaim records a settlement in the append-only history.
func (l *Ledger) AppendClaim(rec ClaimRecord) {
	l.claims = append(l.claims, rec)
}

// AggregateCoverage returns the running sum of coverage across active
// policies, maintained incrementally on every mutation.
func (l *Ledger) AggregateCoverage() int64 {
	return l.aggregate
}

// ClaimCount returns the claim-history length.
func (l *Ledger) ClaimCount() int {
	return len(l.claims)
}

// Claims returns a copy of the claim history for reporting.
func (l *Ledger) Claims() []ClaimRecord {
	out := make([]ClaimRecord, len(l.claims))
	copy(out, l.claims)
	return out
}

// CheckAggregate recomputes the aggregate from scratch and compares it to
// the incrementally maintained total. Invariant check for tests and
// post-operation validation.
func (l *Ledger) CheckAggregate() error {
	var sum int64
	for _, p := range l.policies {
		if p.Active {
			sum += p.Coverage
		}
	}
	if sum != l.aggregate {
		return fmt.Errorf("aggregate coverage drift: tracked=%d recomputed=%d", l.aggregate, sum)
	}
	return nil
}

// ActiveAccounts returns accounts with active policies, for keeper sweeps.
func (l *Ledger) ActiveAccounts() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(l.policies))
	for acct, p := range l.policies {
		if p.Active {
			out = append(out, acct)
		}
	}
	return out
}
