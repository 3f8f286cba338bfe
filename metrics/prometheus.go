package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderName is the name this provider is selected under from ByName.
const ProviderName = "prometheus"

// prometheusProvider lazily registers one counter/gauge/histogram per
// distinct metric name against its own registry (not the global default
// registry, so multiple engines in one process don't collide).
type prometheusProvider struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
	timers     map[string]*promTimer
}

func newPrometheus() Metrics {
	return &prometheusProvider{
		registry:   prometheus.NewRegistry(),
		counters:   map[string]prometheus.Counter{},
		histograms: map[string]prometheus.Histogram{},
		timers:     map[string]*promTimer{},
	}
}

func (p *prometheusProvider) Counter(name string) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{Name: sanitize(name), Help: name})
		p.registry.MustRegister(c)
		p.counters[name] = c
	}
	return promCounter{c}
}

func (p *prometheusProvider) Timer(name string) Timer {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.timers[name]
	if !ok {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: sanitize(name) + "_seconds", Help: name})
		p.registry.MustRegister(h)
		t = &promTimer{hist: h}
		p.timers[name] = t
	}
	return t
}

func (p *prometheusProvider) Histogram(name string) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.histograms[name]
	if !ok {
		h = prometheus.NewHistogram(prometheus.HistogramOpts{Name: sanitize(name), Help: name})
		p.registry.MustRegister(h)
		p.histograms[name] = h
	}
	return promHistogram{h}
}

func (p *prometheusProvider) All() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := map[string]any{}
	for name := range p.counters {
		out[name] = "counter"
	}
	for name := range p.histograms {
		out[name] = "histogram"
	}
	for name := range p.timers {
		out[name] = "timer"
	}
	return out
}

type promCounter struct{ c prometheus.Counter }

func (p promCounter) Incr()         { p.c.Inc() }
func (p promCounter) Add(n uint64)  { p.c.Add(float64(n)) }
func (p promCounter) Value() uint64 { return 0 } // prometheus.Counter exposes no read-back API

type promHistogram struct{ h prometheus.Histogram }

func (p promHistogram) Update(v int64) { p.h.Observe(float64(v)) }

type promTimer struct {
	hist    prometheus.Histogram
	started int64
}

func (t *promTimer) Start()       { t.started = nowNano() }
func (t *promTimer) Stop() int64 {
	elapsed := nowNano() - t.started
	t.hist.Observe(float64(elapsed) / 1e9)
	return elapsed
}
func (t *promTimer) Value() int64 { return 0 }

func sanitize(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '.' || c == '-' || c == ' ' {
			out[i] = '_'
		} else {
			out[i] = c
		}
	}
	return "s3db_" + string(out)
}
