// Package facility assembles configured facilities: their timezone, holiday
// oracle and a resolver over the shared rule store.
package facility

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"openhours/internal/config"
	"openhours/internal/domain"
	"openhours/internal/holiday"
	"openhours/internal/hours"
	"openhours/internal/store"
	"openhours/internal/util"
)

// Facility is a place with opening hours.
type Facility struct {
	ID       string
	Name     string
	Location *time.Location
	Oracle   hours.HolidayOracle
	Resolver *hours.Resolver
	Calendar *util.FacilityCalendar
}

// Registry holds facilities by ID.
type Registry struct {
	byID map[string]*Facility
}

// NewRegistry creates a Registry from facilities.
func NewRegistry(facilities ...*Facility) *Registry {
	r := &Registry{byID: make(map[string]*Facility, len(facilities))}
	for _, f := range facilities {
		r.byID[f.ID] = f
	}
	return r
}

// Get looks up a facility.
func (r *Registry) Get(id string) (*Facility, bool) {
	f, ok := r.byID[id]
	return f, ok
}

// List returns all facilities sorted by ID.
func (r *Registry) List() []*Facility {
	out := make([]*Facility, 0, len(r.byID))
	for _, f := range r.byID {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// New creates a Facility whose rules are read from rules on every query.
func New(id, name string, loc *time.Location, rules hours.RuleSource, oracle hours.HolidayOracle, log *slog.Logger) *Facility {
	if loc == nil {
		loc = time.UTC
	}
	if name == "" {
		name = id
	}
	if log == nil {
		log = slog.Default()
	}
	resolver := hours.NewResolver(rules, oracle, log.With("facility", id))
	return &Facility{
		ID:       id,
		Name:     name,
		Location: loc,
		Oracle:   oracle,
		Resolver: resolver,
		Calendar: util.NewFacilityCalendar(resolver, loc),
	}
}

// Build creates a registry of the configured facilities backed by rules.
func Build(cfg *config.Config, rules store.RuleStore, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	facilities := make([]*Facility, 0, len(cfg.Facilities))
	for _, fc := range cfg.Facilities {
		loc, err := fc.Location()
		if err != nil {
			return nil, err
		}
		oracle, err := NewOracle(fc.Holidays, cfg.Alpaca, log)
		if err != nil {
			return nil, fmt.Errorf("facility %s: %w", fc.ID, err)
		}
		facilities = append(facilities,
			New(fc.ID, fc.Name, loc, store.NewFacilitySource(rules, fc.ID), oracle, log))
	}
	return NewRegistry(facilities...), nil
}

// NewOracle creates the holiday oracle described by h. Every oracle except
// none is memoized per date.
func NewOracle(h config.Holidays, alpaca config.Alpaca, log *slog.Logger) (hours.HolidayOracle, error) {
	switch h.Kind {
	case "", config.HolidaysNone:
		return holiday.None{}, nil
	case config.HolidaysGermany:
		g, err := holiday.NewGermany(h.Region)
		if err != nil {
			return nil, err
		}
		return holiday.NewMemo(g), nil
	case config.HolidaysDates:
		d, err := holiday.NewDates(h.Dates)
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.HolidaysMarket:
		return holiday.NewMemo(holiday.NewMarketCalendar(alpaca.APIKey, alpaca.APISecret, alpaca.BaseURL, log)), nil
	default:
		return nil, fmt.Errorf("unknown holidays kind %q", h.Kind)
	}
}

// ConfiguredRules parses the rules a facility definition carries, from its
// rules file when one is named.
func ConfiguredRules(fc config.Facility) ([]domain.Rule, error) {
	loc, err := fc.Location()
	if err != nil {
		return nil, err
	}
	if fc.RulesFile != "" {
		return store.LoadRuleFile(fc.RulesFile, loc)
	}
	rules, err := domain.ParseRules(fc.Rules, loc)
	if err != nil {
		return nil, fmt.Errorf("facility %s: %w", fc.ID, err)
	}
	return rules, nil
}

// Seeder replaces a facility's stored rules.
type Seeder interface {
	ReplaceRules(ctx context.Context, facility string, rules []domain.Rule) error
}

// Seed stores the configured rules of every facility that defines any.
// Facilities without configured rules keep what is already stored.
func Seed(ctx context.Context, cfg *config.Config, s Seeder, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	for _, fc := range cfg.Facilities {
		if fc.RulesFile == "" && len(fc.Rules) == 0 {
			continue
		}
		rules, err := ConfiguredRules(fc)
		if err != nil {
			return err
		}
		for i := range rules {
			if rules[i].ID == "" {
				rules[i].ID = fmt.Sprintf("%s-%d", fc.ID, i+1)
			}
		}
		if err := s.ReplaceRules(ctx, fc.ID, rules); err != nil {
			return fmt.Errorf("seeding %s: %w", fc.ID, err)
		}
		log.Info("seeded facility rules", "facility", fc.ID, "rules", len(rules))
	}
	return nil
}

// Lister lists the facilities a store holds rules for.
type Lister interface {
	Facilities(ctx context.Context) ([]string, error)
}

// Unconfigured returns the stored facilities that no config entry names.
// Their rules stay in the store but are not served.
func Unconfigured(ctx context.Context, cfg *config.Config, s Lister) ([]string, error) {
	stored, err := s.Facilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stored facilities: %w", err)
	}
	known := make(map[string]bool, len(cfg.Facilities))
	for _, fc := range cfg.Facilities {
		known[fc.ID] = true
	}
	var out []string
	for _, id := range stored {
		if !known[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
