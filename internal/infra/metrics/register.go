package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register queues collectors from each file's init.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister registers every shop collector with the default registry.
// Later calls are no-ops.
func MustRegister() { MustRegisterWith(prometheus.DefaultRegisterer) }

func MustRegisterWith(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(collectors...)
	})
}

const maxLabelLen = 48

// norm lowercases a label value and bounds it, so states, intents and error
// classes cannot blow up series cardinality.
func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		case r == ' ', r == '-', r == '.', r == '/':
			return '_'
		}
		return -1
	}, s)
	if len(s) > maxLabelLen {
		s = s[:maxLabelLen]
	}
	if s == "" {
		return "other"
	}
	return s
}
