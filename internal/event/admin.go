package event

import "github.com/google/uuid"

// ParameterUpdated records a governed parameter change.
type ParameterUpdated struct {
	Admin     uuid.UUID `json:"admin"`
	Name      string    `json:"name"`
	OldValue  int64     `json:"old_value"`
	NewValue  int64     `json:"new_value"`
	Timestamp int64     `json:"timestamp"`
}

func (e *ParameterUpdated) Type() Type          { return TypeParameterUpdated }
func (e *ParameterUpdated) Account() *uuid.UUID { return &e.Admin }
func (e *ParameterUpdated) Unix() int64         { return e.Timestamp }

// KeeperUpdated records a keeper reassignment.
type KeeperUpdated struct {
	Admin     uuid.UUID `json:"admin"`
	Keeper    uuid.UUID `json:"keeper"`
	Timestamp int64     `json:"timestamp"`
}

func (e *KeeperUpdated) Type() Type          { return TypeKeeperUpdated }
func (e *KeeperUpdated) Account() *uuid.UUID { return &e.Admin }
func (e *KeeperUpdated) Unix() int64         { return e.Timestamp }

// SecondaryOracleUpdated records installation or replacement of the
// cross-validation price source.
type SecondaryOracleUpdated struct {
	Admin     uuid.UUID `json:"admin"`
	Source    string    `json:"source"`
	Timestamp int64     `json:"timestamp"`
}

func (e *SecondaryOracleUpdated) Type() Type          { return TypeSecondaryOracleUpdated }
func (e *SecondaryOracleUpdated) Account() *uuid.UUID { return &e.Admin }
func (e *SecondaryOracleUpdated) Unix() int64         { return e.Timestamp }

// FundsWithdrawn records an administrative withdrawal of excess funds.
type FundsWithdrawn struct {
	Admin     uuid.UUID `json:"admin"`
	Recipient uuid.UUID `json:"recipient"`
	Amount    int64     `json:"amount"`
	Timestamp int64     `json:"timestamp"`
}

func (e *FundsWithdrawn) Type() Type          { return TypeFundsWithdrawn }
func (e *FundsWithdrawn) Account() *uuid.UUID { return &e.Admin }
func (e *FundsWithdrawn) Unix() int64         { return e.Timestamp }
