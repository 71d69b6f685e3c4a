// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-sss.
//
// go-sss is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package metrics

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Probe refreshes one set of gauges. A returned error is counted in
// CollectorErrorsTotal under the probe's name; the other probes still run.
type Probe func(ctx context.Context) error

// Collector periodically refreshes the process gauges and every registered
// probe.
type Collector struct {
	interval time.Duration
	started  time.Time

	mu     sync.Mutex
	names  []string
	probes map[string]Probe

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCollector returns a collector that ticks at interval once started.
func NewCollector(interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Collector{
		interval: interval,
		started:  time.Now(),
		probes:   make(map[string]Probe),
	}
}

// Register adds or replaces the probe called name.
func (c *Collector) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.probes[name]; !ok {
		c.names = append(c.names, name)
	}
	c.probes[name] = probe
}

// Start collects once, then runs in the background until ctx is done or
// Stop is called. Calling Start on a running collector has no effect.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.Collect(ctx)
	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Collect(ctx)
			}
		}
	}()
}

// Stop halts the collector and waits for an in-flight collection.
func (c *Collector) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Collect refreshes every gauge once.
func (c *Collector) Collect(ctx context.Context) {
	if !IsEnabled() {
		return
	}

	Goroutines.Set(float64(runtime.NumGoroutine()))
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	MemoryAllocBytes.Set(float64(memStats.Alloc))
	ServerUptime.Set(time.Since(c.started).Seconds())

	c.mu.Lock()
	names := append([]string(nil), c.names...)
	probes := make([]Probe, len(names))
	for i, name := range names {
		probes[i] = c.probes[name]
	}
	c.mu.Unlock()

	for i, probe := range probes {
		if err := probe(ctx); err != nil {
			CollectorErrorsTotal.WithLabelValues(names[i]).Inc()
		}
	}
}
