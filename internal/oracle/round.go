package oracle

import "context"

// Round is one oracle observation, Chainlink aggregator shaped.
type Round struct {
	RoundID         uint64
	Price           int64 // Oracle decimal precision (OracleConfig.Scale)
	StartedAt       int64 // Unix seconds
	UpdatedAt       int64 // Unix seconds; zero means never updated
	AnsweredInRound uint64
}

// PriceSource is the external price feed. A source may fail to respond at
// all; callers must treat that as an unhealthy condition, not a fatal abort.
type PriceSource interface {
	LatestRound(ctx context.Context) (Round, error)
}
