// Package service implements the case lifecycle state machine and the
// action-required coordinator.
//
// Every mutation is a load-modify-save against the case store's optimistic
// lock. Guards run against the loaded copy and nothing is persisted until
// all of them pass, so a rejected operation leaves the stored case
// untouched. A lost version race surfaces as CodeConcurrentModification
// without retry.
package service

import (
	"context"
	"errors"
	"log/slog"

	"attache/internal/casefile/metrics"
	"attache/internal/casefile/models"
	"attache/internal/casefile/store"
	"attache/internal/profile"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
	"attache/pkg/platform/events"
	"attache/pkg/platform/sentinel"
)

// Service owns all case mutations.
type Service struct {
	store     store.Store
	registry  *profile.Registry
	authz     Authorization
	docs      DocumentStore
	payments  PaymentVerifier
	allocator Allocator
	events    *events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEvents attaches a notification event publisher.
func WithEvents(p *events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithMetrics attaches casefile metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New constructs the case service over its store, schema registry, and
// collaborator ports.
func New(st store.Store, registry *profile.Registry, authz Authorization, docs DocumentStore, payments PaymentVerifier, allocator Allocator, opts ...Option) *Service {
	s := &Service{
		store:     st,
		registry:  registry,
		authz:     authz,
		docs:      docs,
		payments:  payments,
		allocator: allocator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) load(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := s.store.Get(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *models.Case) (*models.Case, error) {
	updated, err := s.store.Update(ctx, c)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrVersionMismatch):
			return nil, dErrors.New(dErrors.CodeConcurrentModification, "case was modified concurrently, reload and retry")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist case")
	}
	return updated, nil
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "event emit failed",
			"kind", string(event.Kind), "case_id", event.CaseID, "error", err)
	}
}
