// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package feedback

import (
	"context"
	"errors"

	"github.com/tomtom215/trendloom/internal/models"
)

// ErrStoreClosed is returned by stores after Close.
var ErrStoreClosed = errors.New("feedback store closed")

// Store is the key-value backend of the ledger.
type Store interface {
	// Put writes ev under key, replacing any existing event.
	Put(ctx context.Context, key string, ev *models.FeedbackEvent) error

	// Scan calls fn for every event whose key starts with prefix, in key
	// order, against a consistent snapshot. Returning an error from fn
	// stops the scan and returns that error.
	Scan(ctx context.Context, prefix string, fn func(key string, ev *models.FeedbackEvent) error) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys []string) error

	// Close releases the store.
	Close() error
}
