package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegisterOrExisting registers c with reg. When an identical collector is already registered
// (several controllers or clients in one process) the existing one is returned instead.
func RegisterOrExisting[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
