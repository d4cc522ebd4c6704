package institutions

import (
	"fmt"
	"sort"

	"unisync/core/source"
	"unisync/feature/jsonfeed"
	"unisync/feature/ualberta"

	"go.uber.org/zap"
)

// Factory builds the adapter for one configured institution.
type Factory func(inst source.Institution, logger *zap.Logger) (source.Adapter, error)

var factories = map[string]Factory{
	ualberta.Code: func(inst source.Institution, logger *zap.Logger) (source.Adapter, error) {
		return ualberta.New(inst, logger)
	},
	jsonfeed.Kind: func(inst source.Institution, logger *zap.Logger) (source.Adapter, error) {
		return jsonfeed.New(inst, logger)
	},
}

// defaults fill in kind specific settings a config may leave out.
var defaults = map[string]func(source.Institution) source.Institution{
	ualberta.Code: ualberta.WithDefaults,
}

// Kinds returns the adapter kinds that can be configured, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Defaults is the institution list used when none is configured.
func Defaults() []source.Institution {
	return []source.Institution{ualberta.Institution()}
}

// NewRegistry builds an adapter for every configured institution and freezes
// them into a registry. An institution without an adapter kind uses the kind
// named like its code.
func NewRegistry(configs []source.Institution, logger *zap.Logger) (*source.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(configs) == 0 {
		configs = Defaults()
	}

	b := source.NewRegistryBuilder()
	for _, inst := range configs {
		kind := inst.Adapter
		if kind == "" {
			kind = source.NormalizeInstitutionCode(inst.Code)
			inst.Adapter = kind
		}
		factory, ok := factories[kind]
		if !ok {
			return nil, fmt.Errorf("institution %s: unknown adapter %q (available: %v)", inst.Code, kind, Kinds())
		}
		if fill, ok := defaults[kind]; ok {
			inst = fill(inst)
		}

		adapter, err := factory(inst, logger)
		if err != nil {
			return nil, fmt.Errorf("institution %s: %w", inst.Code, err)
		}
		if err := b.Register(inst, adapter); err != nil {
			return nil, err
		}
		logger.Debug("Registered institution",
			zap.String("institution", inst.Code),
			zap.String("adapter", kind),
			zap.Duration("fetch_timeout", inst.FetchTimeout))
	}
	return b.Build(), nil
}
