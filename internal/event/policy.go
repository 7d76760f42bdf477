package event

import "github.com/google/uuid"

// Initialized marks deployment-equivalent setup.
type Initialized struct {
	PoolAccount uuid.UUID `json:"pool_account"`
	Timestamp   int64     `json:"timestamp"`
}

func (e *Initialized) Type() Type          { return TypeInitialized }
func (e *Initialized) Account() *uuid.UUID { return nil }
func (e *Initialized) Unix() int64         { return e.Timestamp }

// PolicyCreated is emitted after a successful purchase.
type PolicyCreated struct {
	Holder         uuid.UUID `json:"holder"`
	Premium        int64     `json:"premium"`
	Coverage       int64     `json:"coverage"`
	PriceThreshold int64     `json:"price_threshold"`
	ExpiresAt      int64     `json:"expires_at"`
	OraclePrice    int64     `json:"oracle_price"`
	Timestamp      int64     `json:"timestamp"`
}

func (e *PolicyCreated) Type() Type          { return TypePolicyCreated }
func (e *PolicyCreated) Account() *uuid.UUID { return &e.Holder }
func (e *PolicyCreated) Unix() int64         { return e.Timestamp }

// PolicyExpired is emitted when a lapsed policy is deactivated, whether by
// a direct expire call, a keeper sweep, or the settlement path.
type PolicyExpired struct {
	Holder           uuid.UUID `json:"holder"`
	ReleasedCoverage int64     `json:"released_coverage"`
	ExpiredAt        int64     `json:"expired_at"`
	Timestamp        int64     `json:"timestamp"`
}

func (e *PolicyExpired) Type() Type          { return TypePolicyExpired }
func (e *PolicyExpired) Account() *uuid.UUID { return &e.Holder }
func (e *PolicyExpired) Unix() int64         { return e.Timestamp }
