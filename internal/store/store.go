// Package store persists opening-hours rules per facility and adapts stored
// rules to the resolver's RuleSource.
package store

import (
	"context"
	"errors"

	"openhours/internal/domain"
	"openhours/internal/hours"
)

// ErrFacilityNotFound is returned when a facility has no stored rules.
var ErrFacilityNotFound = errors.New("facility not found")

// ErrRuleNotFound is returned when deleting a rule that does not exist.
var ErrRuleNotFound = errors.New("rule not found")

// RuleStore persists and retrieves opening-hours rules.
type RuleStore interface {
	// Rules returns the rules of a facility in registration order.
	Rules(ctx context.Context, facility string) ([]domain.Rule, error)

	// SaveRule inserts or replaces a rule. An empty rule ID is assigned.
	SaveRule(ctx context.Context, facility string, rule *domain.Rule) error

	// DeleteRule removes a rule by ID.
	DeleteRule(ctx context.Context, facility, id string) error

	// Facilities lists all facilities that have rules, sorted.
	Facilities(ctx context.Context) ([]string, error)
}

// Compile-time interface checks.
var _ hours.RuleSource = StaticSource(nil)
var _ hours.RuleSource = (*FacilitySource)(nil)

// StaticSource is a fixed rule slice.
type StaticSource []domain.Rule

// Rules returns the slice.
func (s StaticSource) Rules(context.Context) ([]domain.Rule, error) {
	return s, nil
}

// FacilitySource reads one facility's rules from a RuleStore on every call,
// so edits take effect on the next resolution.
type FacilitySource struct {
	Store    RuleStore
	Facility string
}

// NewFacilitySource creates a FacilitySource.
func NewFacilitySource(store RuleStore, facility string) *FacilitySource {
	return &FacilitySource{Store: store, Facility: facility}
}

// Rules returns the facility's stored rules. A facility without rules
// resolves as always closed.
func (s *FacilitySource) Rules(ctx context.Context) ([]domain.Rule, error) {
	rules, err := s.Store.Rules(ctx, s.Facility)
	if errors.Is(err, ErrFacilityNotFound) {
		return nil, nil
	}
	return rules, err
}
