// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package store

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/roomradar/roomradar/internal/logging"
	"github.com/roomradar/roomradar/internal/metrics"
	"github.com/roomradar/roomradar/internal/models"
)

// breakerName labels the catalog breaker in logs and metrics.
const breakerName = "room_catalog"

// BreakerCatalog wraps a RoomCatalog with a circuit breaker so repeated
// catalog failures short-circuit quickly and callers fall back to the
// popularity path instead of piling up on a dead database.
type BreakerCatalog struct {
	inner RoomCatalog
	cb    *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerCatalog wraps the given catalog. The breaker opens after five
// consecutive failures and probes again after 30 seconds.
func NewBreakerCatalog(inner RoomCatalog) *BreakerCatalog {
	logger := logging.WithComponent("catalog_breaker")

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("catalog breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	}

	return &BreakerCatalog{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

// State returns the current breaker state string for status reporting.
func (b *BreakerCatalog) State() string {
	return b.cb.State().String()
}

// GetRoom fetches one room through the breaker. ErrNotFound does not
// count as a dependency failure.
func (b *BreakerCatalog) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	res, err := b.execute(func() (interface{}, error) {
		room, err := b.inner.GetRoom(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Absence is a valid answer, not an outage.
			return (*models.Room)(nil), nil
		}
		return room, err
	})
	if err != nil {
		return nil, err
	}
	room := res.(*models.Room)
	if room == nil {
		return nil, ErrNotFound
	}
	return room, nil
}

// ListActiveRooms fetches all bookable rooms through the breaker.
func (b *BreakerCatalog) ListActiveRooms(ctx context.Context) ([]*models.Room, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.inner.ListActiveRooms(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]*models.Room), nil
}

// ListModifiedSince fetches changed rooms through the breaker.
func (b *BreakerCatalog) ListModifiedSince(ctx context.Context, since time.Time) ([]*models.Room, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.inner.ListModifiedSince(ctx, since)
	})
	if err != nil {
		return nil, err
	}
	return res.([]*models.Room), nil
}

func (b *BreakerCatalog) execute(fn func() (interface{}, error)) (interface{}, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	}
	return res, err
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

var _ RoomCatalog = (*BreakerCatalog)(nil)
