package event

import "github.com/google/uuid"

// Type discriminator for observable-event payloads
type Type int32

const (
	TypeUnknown Type = iota
	TypeInitialized
	TypePolicyCreated
	TypePolicyExpired
	TypeClaimProcessed
	TypeClaimPartiallyProcessed
	TypeClaimFailed
	TypeParameterUpdated
	TypeKeeperUpdated
	TypeSecondaryOracleUpdated
	TypeFundsWithdrawn
)

// Event is the interface all observable payloads implement. Events are
// for off-chain monitoring and audit reconstruction; they never affect
// engine behavior.
type Event interface {
	Type() Type

	// Account returns the subject account (nil for global events).
	Account() *uuid.UUID

	// Unix returns the event timestamp in unix seconds.
	Unix() int64
}

// Envelope wraps every event emitted by the engine.
type Envelope struct {
	// Global monotonic sequence assigned by the engine
	Sequence int64

	Type Type

	// Subject account (nullable for global events)
	Account *uuid.UUID

	// Unix seconds at emission
	Timestamp int64

	// The typed payload; JSON-encoded at persistence/publish time
	Payload Event
}

func (t Type) String() string {
	switch t {
	case TypeInitialized:
		return "Initialized"
	case TypePolicyCreated:
		return "PolicyCreated"
	case TypePolicyExpired:
		return "PolicyExpired"
	case TypeClaimProcessed:
		return "ClaimProcessed"
	case TypeClaimPartiallyProcessed:
		return "ClaimPartiallyProcessed"
	case TypeClaimFailed:
		return "ClaimFailed"
	case TypeParameterUpdated:
		return "ParameterUpdated"
	case TypeKeeperUpdated:
		return "KeeperUpdated"
	case TypeSecondaryOracleUpdated:
		return "SecondaryOracleUpdated"
	case TypeFundsWithdrawn:
		return "FundsWithdrawn"
	default:
		return "Unknown"
	}
}
