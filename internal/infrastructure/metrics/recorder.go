package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"metamon_player/internal/app/port"
)

const namespace = "metamon"

// Recorder implements port.MetricsRecorder with Prometheus collectors.
type Recorder struct {
	requests  *prometheus.CounterVec
	battles   *prometheus.CounterVec
	fragments prometheus.Counter
	levelUps  prometheus.Counter
	eggs      prometheus.Counter
	wallets   *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Game API request attempts by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		battles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "battles_total",
			Help:      "Battles fought by result.",
		}, []string{"result"}),
		fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "egg_fragments_total",
			Help:      "Egg fragments earned from battles.",
		}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Successful level ups.",
		}),
		eggs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eggs_minted_total",
			Help:      "Eggs minted from fragments.",
		}),
		wallets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallets_processed_total",
			Help:      "Wallets processed by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(r.requests, r.battles, r.fragments, r.levelUps, r.eggs, r.wallets)
	return r
}

var _ port.MetricsRecorder = (*Recorder)(nil)

func (r *Recorder) RecordRequest(endpoint, outcome string) {
	r.requests.WithLabelValues(endpoint, outcome).Inc()
}

func (r *Recorder) RecordBattle(won bool, fragments int) {
	result := "loss"
	if won {
		result = "win"
	}
	r.battles.WithLabelValues(result).Inc()
	if fragments > 0 {
		r.fragments.Add(float64(fragments))
	}
}

func (r *Recorder) RecordLevelUp() {
	r.levelUps.Inc()
}

func (r *Recorder) RecordEggsMinted(count int) {
	if count > 0 {
		r.eggs.Add(float64(count))
	}
}

func (r *Recorder) RecordWallet(outcome string) {
	r.wallets.WithLabelValues(outcome).Inc()
}

// WriteTextfile dumps everything gathered by g to path in the text exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
