// Package metrics exposes filter counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"chat_filter/internal/filter"
)

const namespace = "chatfilter"

// Collector counts filter outcomes. A nil *Collector records nothing.
type Collector struct {
	reg *prometheus.Registry

	verdicts  *prometheus.CounterVec
	collapsed prometheus.Counter
	invalid   prometheus.Counter
	rules     *prometheus.GaugeVec
}

// New creates a Collector registered on its own registry.
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Censor evaluations by outcome.",
		}, []string{"verdict"}),
		collapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collapsed_total",
			Help:      "Lines hidden or merged as repeats.",
		}),
		invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_rules_total",
			Help:      "Rule entries skipped because they did not compile.",
		}),
		rules: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules",
			Help:      "Compiled rules of the most recent compilation by kind.",
		}, []string{"kind"}),
	}
	c.reg.MustRegister(c.verdicts, c.collapsed, c.invalid, c.rules)
	return c
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// Verdict counts one censor outcome.
func (c *Collector) Verdict(action filter.Action) {
	if c == nil {
		return
	}
	c.verdicts.WithLabelValues(action.String()).Inc()
}

// Collapsed counts one hidden or merged repeat.
func (c *Collector) Collapsed() {
	if c == nil {
		return
	}
	c.collapsed.Inc()
}

// InvalidRules counts skipped rule entries.
func (c *Collector) InvalidRules(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.invalid.Add(float64(n))
}

// RuleCount records the size of the latest compiled rule set.
func (c *Collector) RuleCount(content, names int) {
	if c == nil {
		return
	}
	c.rules.WithLabelValues("content").Set(float64(content))
	c.rules.WithLabelValues("name").Set(float64(names))
}
