// Package monitor provides periodic reachability probing over a
// managed target set, with aggregated per-target statistics and a
// Prometheus collector.
package monitor

import (
	"log"
	"net"
	"sync"
	"time"

	"github.com/probelab/multiprobe"
)

const (
	defaultHistorySize = 10
	defaultTimeout     = time.Second
)

// target couples a probed address with its result history.
type target struct {
	addr    net.IPAddr
	history History
}

// Monitor runs one probing round over its target set on a fixed
// interval and records the outcome per target.
type Monitor struct {
	HistorySize int           // number of results to keep per target
	Timeout     time.Duration // overall budget per probing round
	Retry       int           // resend attempts per round for non-responders

	interval time.Duration
	targets  map[string]*target // mapping from external key

	mtx  sync.RWMutex
	stop chan struct{}
}

// New creates a Monitor probing once per interval. Targets are managed
// with AddTarget/RemoveTarget; Start launches the probing loop.
func New(interval time.Duration) *Monitor {
	return &Monitor{
		HistorySize: defaultHistorySize,
		Timeout:     defaultTimeout,
		targets:     make(map[string]*target),
		stop:        make(chan struct{}),
		interval:    interval,
	}
}

// Start launches the periodic probing loop. The first round runs
// immediately.
func (m *Monitor) Start() {
	go m.run()
}

// Stop brings the monitoring gracefully to a halt.
func (m *Monitor) Stop() {
	close(m.stop)
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.probeTargets()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.probeTargets()
		}
	}
}

// probeTargets runs one multiprobe round over the current target set
// and files the result for each target.
func (m *Monitor) probeTargets() {
	m.mtx.RLock()
	byAddr := make(map[string]*target, len(m.targets))
	addrs := make([]string, 0, len(m.targets))
	for _, t := range m.targets {
		key := t.addr.String()
		if _, dup := byAddr[key]; dup {
			continue
		}
		byAddr[key] = t
		addrs = append(addrs, key)
	}
	timeout, retry := m.Timeout, m.Retry
	m.mtx.RUnlock()

	if len(addrs) == 0 {
		return
	}

	answered, unanswered, err := multiprobe.MultiProbe(addrs, timeout, retry, false)
	if err != nil {
		log.Printf("probe round failed: %v", err)
		return
	}

	for key, rtt := range answered {
		if t := byAddr[key]; t != nil {
			t.history.AddResult(rtt, false)
		}
	}
	for _, key := range unanswered {
		if t := byAddr[key]; t != nil {
			t.history.AddResult(0, true)
		}
	}
}

// AddTarget adds an address to the monitored set under the given key.
// A key that already exists keeps its history.
func (m *Monitor) AddTarget(key string, addr net.IPAddr) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.targets[key] != nil {
		return
	}

	m.targets[key] = &target{
		addr:    addr,
		history: NewHistory(m.HistorySize),
	}
}

// RemoveTarget removes a target from the monitoring list.
func (m *Monitor) RemoveTarget(key string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	delete(m.targets, key)
}

// Export calculates the metrics for each monitored target and returns it as a simple map.
func (m *Monitor) Export() map[string]*Metrics {
	result := make(map[string]*Metrics)

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	for key, target := range m.targets {
		if metrics := target.history.Compute(); metrics != nil {
			result[key] = metrics
		}
	}

	return result
}

// ExportAndClear is like Export, but resets each target's history.
func (m *Monitor) ExportAndClear() map[string]*Metrics {
	result := make(map[string]*Metrics)

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	for key, target := range m.targets {
		if metrics := target.history.ComputeAndClear(); metrics != nil {
			result[key] = metrics
		}
	}

	return result
}
