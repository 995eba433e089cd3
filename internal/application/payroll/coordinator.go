package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/simpleaccounts/backend/internal/domain/coordination"
	"go.uber.org/zap"
)

// DefaultRunTTL bounds how long a crashed payroll worker can keep a pay
// period wedged. Payroll computation is long-running, so the lease is
// generous; after it elapses a new run may reclaim the period.
const DefaultRunTTL = time.Hour

// RunCoordinator serializes payroll runs per pay period. Exactly one run per
// period proceeds at a time; runs for different periods never block each
// other. The RUNNING state of a period is the live lease itself.
type RunCoordinator struct {
	locks  *coordination.CriticalSectionLock
	ttl    time.Duration
	logger *zap.Logger
}

// CoordinatorOption is a functional option for configuring RunCoordinator
type CoordinatorOption func(*RunCoordinator)

// WithRunTTL overrides the lease TTL for payroll runs
func WithRunTTL(ttl time.Duration) CoordinatorOption {
	return func(c *RunCoordinator) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCoordinatorLogger sets the logger
func WithCoordinatorLogger(logger *zap.Logger) CoordinatorOption {
	return func(c *RunCoordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRunCoordinator creates a payroll run coordinator
func NewRunCoordinator(locks *coordination.CriticalSectionLock, opts ...CoordinatorOption) *RunCoordinator {
	c := &RunCoordinator{
		locks:  locks,
		ttl:    DefaultRunTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// runLockKey scopes the lease to one pay period, e.g. "payroll:2024-12"
func runLockKey(period string) string {
	return "payroll:" + period
}

// TryStart claims the pay period for userID. False means another run for the
// same period is in progress; the caller may poll BlockedMessage for who.
func (c *RunCoordinator) TryStart(ctx context.Context, period, userID string) (bool, error) {
	started, err := c.locks.TryAcquire(ctx, runLockKey(period), userID, c.ttl)
	if err != nil {
		return false, err
	}
	if started {
		c.logger.Info("payroll run started",
			zap.String("period", period),
			zap.String("user", userID),
		)
	}
	return started, nil
}

// Complete finishes the run and frees the period immediately. Only the
// current owner may complete; a caller whose lease expired and was reclaimed
// gets shared.ErrNotLockOwner.
func (c *RunCoordinator) Complete(ctx context.Context, period, userID string) error {
	if err := c.locks.Release(ctx, runLockKey(period), userID); err != nil {
		return err
	}
	c.logger.Info("payroll run completed",
		zap.String("period", period),
		zap.String("user", userID),
	)
	return nil
}

// BlockedMessage returns a human-readable description of the run blocking
// the period, or "" when the period is free.
func (c *RunCoordinator) BlockedMessage(ctx context.Context, period string) (string, error) {
	owner, held, err := c.locks.OwnerOf(ctx, runLockKey(period))
	if err != nil {
		return "", err
	}
	if !held {
		return "", nil
	}
	return fmt.Sprintf("Payroll run for %s is in progress by %s", period, owner), nil
}
