// Package strategy defines the plugin contract every trading strategy
// implements, a name-to-constructor registry, and the seven concrete
// strategies shipped with the engine.
package strategy

import (
	"fmt"
	"sort"

	"github.com/sawpanic/optionrun/internal/domain"
	"github.com/sawpanic/optionrun/internal/market"
)

// Strategy is the polymorphic capability set for one trading strategy.
// Implementations hold configuration only; all per-day state arrives
// through the snapshot and portfolio views, which are read-only.
type Strategy interface {
	// Name returns the registry name of the strategy
	Name() string

	// GenerateSignals scans the snapshot and returns zero or more candidate
	// signals. "No opportunity today" is ([], nil); a non-nil error marks a
	// genuine strategy failure which the engine logs and isolates to this
	// strategy for this day.
	GenerateSignals(snap *market.Snapshot) ([]domain.Signal, error)

	// ManagePosition decides the fate of one open position for the day.
	// Called for every open position of this strategy before entries.
	ManagePosition(pos *domain.Position, snap *market.Snapshot) domain.Action

	// SizePosition returns the contract count for an accepted signal,
	// 0 to reject. Must respect the strategy risk budget and the
	// portfolio-wide heat cap exposed by the state view.
	SizePosition(sig domain.Signal, state domain.PortfolioState) int

	// ParameterSpace describes the tunable parameters for the optimizer
	ParameterSpace() []Parameter
}

// Parameter describes one tunable strategy parameter
type Parameter struct {
	Name    string    `json:"name"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Step    float64   `json:"step"`
	Default float64   `json:"default"`
	Choices []float64 `json:"choices,omitempty"` // discrete set, overrides min/max/step
}

// Params is one strategy's numeric parameter bundle from configuration
type Params map[string]float64

// Get returns the named parameter or the fallback
func (p Params) Get(name string, fallback float64) float64 {
	if v, ok := p[name]; ok {
		return v
	}
	return fallback
}

// GetInt returns the named parameter truncated to int or the fallback
func (p Params) GetInt(name string, fallback int) int {
	if v, ok := p[name]; ok {
		return int(v)
	}
	return fallback
}

// Factory constructs a strategy from its parameter bundle
type Factory func(params Params) Strategy

// Registry maps strategy names to constructors
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register installs a factory under a name, replacing any previous entry
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Create builds the named strategy with the given parameters
func (r *Registry) Create(name string, params Params) (Strategy, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (registered: %v)", name, r.Names())
	}
	return factory(params), nil
}

// Names returns registered strategy names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with all built-in strategies
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NameCreditSpread, func(p Params) Strategy { return NewCreditSpread(p) })
	r.Register(NameIronCondor, func(p Params) Strategy { return NewIronCondor(p) })
	r.Register(NameCalendarSpread, func(p Params) Strategy { return NewCalendarSpread(p) })
	r.Register(NameDebitSpread, func(p Params) Strategy { return NewDebitSpread(p) })
	r.Register(NameLotto, func(p Params) Strategy { return NewLotto(p) })
	r.Register(NameStraddle, func(p Params) Strategy { return NewStraddle(p) })
	r.Register(NameMomentum, func(p Params) Strategy { return NewMomentum(p) })
	return r
}
