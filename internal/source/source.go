// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

// Package source defines the uniform fetch capability every content source
// exposes, and composable wrappers (rate limiting, circuit breaking) around it.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/trendloom/internal/models"
)

// ErrSourceUnavailable reports that a source could not serve a request
// because of a network, upstream, or parse failure. Zero results are not
// an error.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrRateLimited reports that the upstream rejected a request as over its
// rate limit. Rate-limit wrappers resolve it by waiting and retrying; it is
// never surfaced past them.
var ErrRateLimited = errors.New("source rate limited")

// Kind classifies a source.
type Kind string

// Source kinds.
const (
	KindEcommerce Kind = "ecommerce"
	KindSocial    Kind = "social"
)

// ParseKind validates a configured kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindEcommerce, KindSocial:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}
}

// Client fetches raw items for a query from one content source.
type Client interface {
	Name() string
	Kind() Kind
	Fetch(ctx context.Context, query string, maxResults int) ([]models.RawItem, error)
}

// Unavailable wraps err so that errors.Is(err, ErrSourceUnavailable) holds
// while keeping the underlying cause.
func Unavailable(name string, err error) error {
	if errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", name, ErrSourceUnavailable, err)
}

// Registry is an ordered set of clients. Registration order is the
// priority order used to break merge ties.
type Registry struct {
	clients []Client
	byName  map[string]Client
}

// NewRegistry builds a registry from clients in priority order.
// Duplicate names are rejected.
func NewRegistry(clients ...Client) (*Registry, error) {
	r := &Registry{byName: make(map[string]Client, len(clients))}
	for _, c := range clients {
		if _, dup := r.byName[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate source %q", c.Name())
		}
		r.byName[c.Name()] = c
		r.clients = append(r.clients, c)
	}
	return r, nil
}

// Get returns the client registered under name.
func (r *Registry) Get(name string) (Client, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns source names in priority order, restricted to the given
// kinds when any are passed.
func (r *Registry) Names(kinds ...Kind) []string {
	names := make([]string, 0, len(r.clients))
	for _, c := range r.clients {
		if len(kinds) == 0 || containsKind(kinds, c.Kind()) {
			names = append(names, c.Name())
		}
	}
	return names
}

// Priority returns the position of name in the priority order, or
// len(registry) for unknown names.
func (r *Registry) Priority(name string) int {
	for i, c := range r.clients {
		if c.Name() == name {
			return i
		}
	}
	return len(r.clients)
}

// Len returns the number of registered sources.
func (r *Registry) Len() int { return len(r.clients) }

func containsKind(kinds []Kind, k Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}
