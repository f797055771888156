package metrics

import "time"

// Recorder counts payment events and observes operation latency. The noop
// recorder is the default; the Prometheus recorder is opt-in.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
