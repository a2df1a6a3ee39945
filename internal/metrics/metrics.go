// Package metrics exposes the pipeline's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the process-wide registry served on the admin endpoint.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Poller metrics, incremented once per tick.
var (
	FeedsPolled = factory.NewCounter(prometheus.CounterOpts{
		Name: "newswire_feeds_polled_total",
		Help: "Feeds fetched by the RSS poller.",
	})
	ArticlesNew = factory.NewCounter(prometheus.CounterOpts{
		Name: "newswire_articles_new_total",
		Help: "Articles stored for the first time.",
	})
	ArticlesUpdated = factory.NewCounter(prometheus.CounterOpts{
		Name: "newswire_articles_updated_total",
		Help: "Articles overwritten in place by a same-URL upsert.",
	})
	ArticlesFiltered = factory.NewCounter(prometheus.CounterOpts{
		Name: "newswire_articles_filtered_total",
		Help: "Articles rejected by the spam/lifestyle filter.",
	})
	PollFailures = factory.NewCounter(prometheus.CounterOpts{
		Name: "newswire_poll_failures_total",
		Help: "Feed fetches that ended in a network or parse error.",
	})
)

// Clustering metrics.
var (
	ClusterMatches = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "newswire_cluster_matches_total",
		Help: "Articles matched to an existing cluster, by match path.",
	}, []string{"path"}) // fingerprint, fuzzy, entity
	ClustersCreated = factory.NewCounter(prometheus.CounterOpts{
		Name: "newswire_clusters_created_total",
		Help: "New clusters created from unmatched articles.",
	})
	ETagConflicts = factory.NewCounter(prometheus.CounterOpts{
		Name: "newswire_etag_conflicts_total",
		Help: "Optimistic-concurrency conflicts on cluster replacement.",
	})
	StatusTransitions = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "newswire_status_transitions_total",
		Help: "Cluster status transitions, by target status.",
	}, []string{"to"})
)

// Summariser metrics.
var (
	LLMRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "newswire_llm_requests_total",
		Help: "LLM completions issued, by path and outcome.",
	}, []string{"path", "outcome"}) // path: realtime, headline, batch
	LLMTokens = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "newswire_llm_tokens_total",
		Help: "Token usage reported by the provider.",
	}, []string{"kind"}) // prompt, completion, cached
	LLMCostUSD = factory.NewCounter(prometheus.CounterOpts{
		Name: "newswire_llm_cost_usd_total",
		Help: "Accumulated generation cost in USD.",
	})
	BatchJobs = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "newswire_batch_jobs_total",
		Help: "Batch jobs by terminal status.",
	}, []string{"status"})
)
