package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Builder turns a Spec into a configured indicator instance.
type Builder func(spec Spec) (Indicator, error)

// IndicatorRegistry maps indicator types to builders.
type IndicatorRegistry interface {
	Register(typ types.IndicatorType, builder Builder) error
	Build(spec Spec) (Indicator, error)
	List() []types.IndicatorType
	Remove(typ types.IndicatorType) error
}

// IndicatorRegistryV1 is a mutex guarded builder map.
type IndicatorRegistryV1 struct {
	builders map[types.IndicatorType]Builder
	mu       sync.RWMutex
}

// NewIndicatorRegistry creates an empty registry.
func NewIndicatorRegistry() *IndicatorRegistryV1 {
	return &IndicatorRegistryV1{
		builders: make(map[types.IndicatorType]Builder),
		mu:       sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry holding every built-in indicator.
func NewDefaultRegistry() *IndicatorRegistryV1 {
	r := NewIndicatorRegistry()

	builtins := map[types.IndicatorType]Builder{
		types.IndicatorTypeSMA:            buildMA,
		types.IndicatorTypeEMA:            buildEMA,
		types.IndicatorTypeDEMA:           buildDEMA,
		types.IndicatorTypeRSI:            buildRSI,
		types.IndicatorTypeStochRSI:       buildStochRSI,
		types.IndicatorTypeMACD:           buildMACD,
		types.IndicatorTypeADX:            buildADX,
		types.IndicatorTypeATR:            buildATR,
		types.IndicatorTypeBollingerBands: buildBollingerBands,
		types.IndicatorTypeEngulfing:      buildEngulfing,
		types.IndicatorTypeHammer:         buildHammer,
		types.IndicatorTypeMACross:        buildMACross,
	}

	for typ, builder := range builtins {
		r.builders[typ] = builder
	}

	return r
}

// Register adds a builder. Registering a type twice is an error.
func (r *IndicatorRegistryV1) Register(typ types.IndicatorType, builder Builder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[typ]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator type %s already registered", typ)
	}

	r.builders[typ] = builder

	return nil
}

// Build looks up the builder for spec.Type and runs it.
func (r *IndicatorRegistryV1) Build(spec Spec) (Indicator, error) {
	r.mu.RLock()
	builder, exists := r.builders[spec.Type]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator type %s not found", spec.Type)
	}

	if spec.Name == "" {
		return nil, errors.Newf(errors.ErrCodeMissingParameter, "indicator of type %s has no name", spec.Type)
	}

	return builder(spec)
}

// List returns the registered types in lexical order.
func (r *IndicatorRegistryV1) List() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

func (r *IndicatorRegistryV1) Remove(typ types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[typ]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator type %s not found", typ)
	}

	delete(r.builders, typ)

	return nil
}
