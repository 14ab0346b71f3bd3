package llm

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"lawnorm/internal/config"
	"lawnorm/internal/port"
)

// ProviderFactory creates a TextGenerator from a provider config.
type ProviderFactory func(cfg *config.LLMProviderConfig) (port.TextGenerator, error)

// registry of provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewGenerator creates a TextGenerator using the registered factory.
func NewGenerator(cfg *config.LLMProviderConfig) (port.TextGenerator, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewFromConfig builds the configured provider chain. A single provider is
// returned as is; several are wrapped in a FallbackGenerator.
func NewFromConfig(cfg *config.LLMConfig, logger *zap.Logger) (port.TextGenerator, error) {
	chain := []*config.LLMProviderConfig{cfg.PrimaryConfig()}
	if s := cfg.SecondaryConfig(); s != nil {
		chain = append(chain, s)
	}
	if t := cfg.TertiaryConfig(); t != nil {
		chain = append(chain, t)
	}

	gens := make([]port.TextGenerator, 0, len(chain))
	names := make([]string, 0, len(chain))
	for _, pc := range chain {
		g, err := NewGenerator(pc)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
		names = append(names, pc.Provider)
	}
	if len(gens) == 1 {
		return gens[0], nil
	}
	return NewFallbackGenerator(gens, names, logger), nil
}
