package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-layout-service/internal/layout"
	"github.com/fekuna/omnipos-layout-service/internal/model"
	"github.com/fekuna/omnipos-layout-service/internal/pkg/logger"
	"go.uber.org/zap"
)

// Locker serializes default writers per scope key across instances.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) { return func() {}, nil }

// Enforcer keeps at most one default layout per scope key.
type Enforcer struct {
	repo   layout.Repository
	locker Locker
	logger logger.ZapLogger
}

func NewEnforcer(repo layout.Repository, locker Locker, log logger.ZapLogger) *Enforcer {
	if locker == nil {
		locker = noopLocker{}
	}
	return &Enforcer{repo: repo, locker: locker, logger: log}
}

// ApplyDefault writes l as its scope's default and clears the siblings.
// Exclusivity is evaluated against l's current scope key, so a record moved
// to a new scope leaves its old scope alone.
func (e *Enforcer) ApplyDefault(ctx context.Context, l *model.GridLayout, create bool) error {
	key := l.ScopeKey()

	unlock, err := e.locker.Lock(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// the store transaction still serializes writers
		e.logger.Warn("scope lock unavailable, relying on store transaction",
			zap.String("scope_key", key), zap.Error(err))
		unlock = func() {}
	}
	defer unlock()

	err = e.repo.ApplyDefault(ctx, l, create)
	if errors.Is(err, model.ErrExclusivityConflict) {
		e.logger.Warn("default exclusivity conflict, re-applying",
			zap.String("layout_id", l.ID), zap.String("scope_key", key))
		err = e.repo.ApplyDefault(ctx, l, create)
	}
	if err != nil {
		return err
	}

	return e.verify(ctx, l)
}

// verify re-checks the scope after the write and corrects a violation once.
func (e *Enforcer) verify(ctx context.Context, l *model.GridLayout) error {
	key := l.ScopeKey()
	n, err := e.repo.CountDefaults(ctx, key)
	if err != nil {
		return err
	}
	if n <= 1 {
		return nil
	}

	e.logger.Warn("multiple defaults after write, correcting",
		zap.String("layout_id", l.ID), zap.String("scope_key", key), zap.Int("defaults", n))

	if err := e.repo.ApplyDefault(ctx, l, false); err != nil {
		return fmt.Errorf("correct scope %s: %w", key, err)
	}
	n, err = e.repo.CountDefaults(ctx, key)
	if err != nil {
		return err
	}
	if n > 1 {
		return fmt.Errorf("scope %s has %d defaults: %w", key, n, model.ErrExclusivityConflict)
	}
	return nil
}
