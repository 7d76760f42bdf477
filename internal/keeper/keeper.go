package keeper

import (
	"context"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"CoverPool/internal/engine"
)

// Keeper runs the periodic expiration sweep. Expiration is otherwise
// lazy, so without a sweep an abandoned policy would tie up pool
// capacity until someone touched it.
type Keeper struct {
	engine   *engine.Engine
	identity uuid.UUID
	cron     *cron.Cron
	logger   zerolog.Logger
}

// New creates a keeper sweeping under the given identity. The identity
// must be assigned on the engine via SetKeeper (or be an administrator)
// for sweeps to be authorized.
func New(eng *engine.Engine, identity uuid.UUID, logger zerolog.Logger) *Keeper {
	return &Keeper{
		engine:   eng,
		identity: identity,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With().Str("component", "keeper").Logger(),
	}
}

// Start registers the sweep on the given cron schedule and starts the
// scheduler. Schedule examples: "@every 5m", "0 0 * * * *".
func (k *Keeper) Start(schedule string) error {
	_, err := k.cron.AddFunc(schedule, k.sweep)
	if err != nil {
		return err
	}
	k.cron.Start()
	k.logger.Info().
		Str("schedule", schedule).
		Str("identity", k.identity.String()).
		Msg("keeper started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (k *Keeper) Stop() {
	ctx := k.cron.Stop()
	<-ctx.Done()
	k.logger.Info().Msg("keeper stopped")
}

// Sweep runs one expiration pass immediately, outside the schedule.
func (k *Keeper) Sweep() (int, error) {
	return k.engine.BatchExpire(context.Background(), k.identity, nil)
}

func (k *Keeper) sweep() {
	expired, err := k.engine.BatchExpire(context.Background(), k.identity, nil)
	if err != nil {
		k.logger.Error().Err(err).Msg("expiration sweep failed")
		return
	}
	if expired > 0 {
		k.logger.Info().Int("expired", expired).Msg("expiration sweep")
	} else {
		k.logger.Debug().Msg("expiration sweep found nothing to expire")
	}
}
