// Package metrics exposes Prometheus collectors for a collection run and pushes
// them to a Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job the run is grouped under.
const JobName = "forumcorpus"

// Metrics holds the collectors of one run on a dedicated registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	recordsCollected *prometheus.CounterVec
	duplicates       *prometheus.CounterVec
	shortRecords     *prometheus.CounterVec
	forbidden        *prometheus.CounterVec
	listingPages     *prometheus.CounterVec
	corpusDocuments  prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		recordsCollected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forumcorpus_records_collected_total",
				Help: "Records appended to the raw dataset, labeled by subreddit.",
			},
			[]string{"subreddit"},
		),
		duplicates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forumcorpus_duplicates_dropped_total",
				Help: "Records dropped because their text repeated within a batch.",
			},
			[]string{"subreddit"},
		),
		shortRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forumcorpus_short_records_dropped_total",
				Help: "Records dropped for text at or below the minimum length.",
			},
			[]string{"subreddit"},
		),
		forbidden: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forumcorpus_forbidden_total",
				Help: "Subreddits that refused access during collection.",
			},
			[]string{"subreddit"},
		),
		listingPages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forumcorpus_listing_pages_total",
				Help: "Listing pages fetched, labeled by listing view.",
			},
			[]string{"listing"},
		),
		corpusDocuments: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "forumcorpus_corpus_documents",
				Help: "Documents in the last preprocessed corpus.",
			},
		),
	}
}

// SanitizeForum normalizes a subreddit name for use as a label value.
// It returns "unknown" for names that are empty after trimming.
func SanitizeForum(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimPrefix(name, "r/")
	if name == "" {
		return "unknown"
	}
	return name
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveBatch records the outcome of one forum batch.
func (m *Metrics) ObserveBatch(forum string, collected, duplicates, short int) {
	if m == nil {
		return
	}
	label := SanitizeForum(forum)
	m.recordsCollected.WithLabelValues(label).Add(float64(collected))
	m.duplicates.WithLabelValues(label).Add(float64(duplicates))
	m.shortRecords.WithLabelValues(label).Add(float64(short))
}

// ObserveForbidden counts a forum that refused access.
func (m *Metrics) ObserveForbidden(forum string) {
	if m == nil {
		return
	}
	m.forbidden.WithLabelValues(SanitizeForum(forum)).Inc()
}

// ObservePage counts one fetched listing page.
func (m *Metrics) ObservePage(listing string) {
	if m == nil {
		return
	}
	m.listingPages.WithLabelValues(listing).Inc()
}

// SetCorpusDocuments records the size of the preprocessed corpus.
func (m *Metrics) SetCorpusDocuments(n int) {
	if m == nil {
		return
	}
	m.corpusDocuments.Set(float64(n))
}

// Push replaces the run's metric group on the Pushgateway at url.
func (m *Metrics) Push(ctx context.Context, url, runID string) error {
	if m == nil || strings.TrimSpace(url) == "" {
		return nil
	}
	pusher := push.New(url, JobName).Gatherer(m.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
