package catalog

import (
	_ "embed"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

var (
	fallbackOnce sync.Once
	fallbackSet  []Challenge
)

// FallbackChallenges returns the built-in degraded-mode catalog.
func FallbackChallenges() []Challenge {
	fallbackOnce.Do(func() {
		if err := yaml.Unmarshal(fallbackYAML, &fallbackSet); err != nil {
			// The file is embedded and covered by tests; an unparseable
			// fallback would mean a broken build, not a runtime condition.
			panic("catalog: embedded fallback.yaml is invalid: " + err.Error())
		}
	})
	out := make([]Challenge, len(fallbackSet))
	copy(out, fallbackSet)
	return out
}
