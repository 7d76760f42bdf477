package event

import "github.com/google/uuid"

// ClaimProcessed is emitted on a full payout: the policy is deactivated.
type ClaimProcessed struct {
	Holder      uuid.UUID `json:"holder"`
	Paid        int64     `json:"paid"`
	OraclePrice int64     `json:"oracle_price"`
	Timestamp   int64     `json:"timestamp"`
}

func (e *ClaimProcessed) Type() Type          { return TypeClaimProcessed }
func (e *ClaimProcessed) Account() *uuid.UUID { return &e.Holder }
func (e *ClaimProcessed) Unix() int64         { return e.Timestamp }

// ClaimPartiallyProcessed is emitted when the pool could only honor part
// of the coverage. The policy stays active with the remainder.
type ClaimPartiallyProcessed struct {
	Holder            uuid.UUID `json:"holder"`
	Paid              int64     `json:"paid"`
	RemainingCoverage int64     `json:"remaining_coverage"`
	OraclePrice       int64     `json:"oracle_price"`
	Timestamp         int64     `json:"timestamp"`
}

func (e *ClaimPartiallyProcessed) Type() Type          { return TypeClaimPartiallyProcessed }
func (e *ClaimPartiallyProcessed) Account() *uuid.UUID { return &e.Holder }
func (e *ClaimPartiallyProcessed) Unix() int64         { return e.Timestamp }

// ClaimFailed is the observable signal for an unsuccessful settlement
// outcome. Not an operation failure: state is unchanged and the caller is
// free to retry later.
type ClaimFailed struct {
	Holder    uuid.UUID `json:"holder"`
	Reason    string    `json:"reason"`
	Timestamp int64     `json:"timestamp"`
}

func (e *ClaimFailed) Type() Type          { return TypeClaimFailed }
func (e *ClaimFailed) Account() *uuid.UUID { return &e.Holder }
func (e *ClaimFailed) Unix() int64         { return e.Timestamp }
