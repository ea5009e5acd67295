// Package service connects named grids to the position updater and keeps
// concurrent reorders of the same parent from interleaving.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ammiranda/position_service/lock"
	"github.com/ammiranda/position_service/position"
)

var (
	ErrGridNotFound = errors.New("grid not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Updater reads and rewrites the positions of a parent scope
type Updater interface {
	Update(ctx context.Context, req *position.Request) ([]position.FieldError, error)
	CurrentPositions(ctx context.Context, def position.Definition, parentID int64) ([]position.RowPosition, error)
}

// Positions handles reorder requests for registered grids
type Positions struct {
	updater  Updater
	registry *position.Registry
	locker   lock.Locker
	logger   logrus.FieldLogger
}

// NewPositions creates a new Positions service
func NewPositions(updater Updater, registry *position.Registry, locker lock.Locker, logger logrus.FieldLogger) *Positions {
	return &Positions{
		updater:  updater,
		registry: registry,
		locker:   locker,
		logger:   logger,
	}
}

// ScopeKey is the lock key of one parent's rows in a grid
func ScopeKey(grid string, parentID int64) string {
	return fmt.Sprintf("grid:%s:%d", grid, parentID)
}

// Grids returns the registered grid names
func (s *Positions) Grids() []string {
	return s.registry.Names()
}

// List returns the stored order of parentID's rows
func (s *Positions) List(ctx context.Context, grid string, parentID int64) ([]position.RowPosition, error) {
	def, err := s.definition(grid, parentID)
	if err != nil {
		return nil, err
	}
	return s.updater.CurrentPositions(ctx, def, parentID)
}

// Reorder applies updates to parentID's rows while holding the scope lock.
// The returned slice lists rows that could not be written.
func (s *Positions) Reorder(ctx context.Context, grid string, parentID int64, updates []position.RowUpdate) ([]position.FieldError, error) {
	def, err := s.definition(grid, parentID)
	if err != nil {
		return nil, err
	}

	key := ScopeKey(grid, parentID)
	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error locking %s: %w", key, err)
	}
	defer func() {
		if err := release(); err != nil {
			s.logger.WithError(err).WithField("lock", key).Warn("error releasing scope lock")
		}
	}()

	errs, err := s.updater.Update(ctx, position.NewRequest(def, parentID, updates...))
	if err != nil {
		return nil, err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"grid":        grid,
		"parent_id":   parentID,
		"overrides":   len(updates),
		"failed_rows": len(errs),
	})
	if len(errs) > 0 {
		entry.Warn("positions partially updated")
	} else {
		entry.Info("positions updated")
	}
	return errs, nil
}

func (s *Positions) definition(grid string, parentID int64) (position.Definition, error) {
	def, ok := s.registry.Get(grid)
	if !ok {
		return position.Definition{}, fmt.Errorf("%w: %s", ErrGridNotFound, grid)
	}
	if parentID <= 0 {
		return position.Definition{}, fmt.Errorf("%w: parent id must be positive", ErrInvalidInput)
	}
	return def, nil
}
