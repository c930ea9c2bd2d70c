package pulso

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCounterUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulso",
		Name:      "reaction_counter_updates_total",
		Help:      "Post reaction counter updates applied.",
	})
	metricOrphanReactions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulso",
		Name:      "orphan_reaction_changes_total",
		Help:      "Reaction change events dropped because the post no longer exists.",
	})
	metricModeratedPosts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulso",
		Name:      "moderated_posts_total",
		Help:      "Posts redacted by the banned words filter.",
	})
	metricPushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulso",
		Name:      "web_push_failures_total",
		Help:      "Web push sends that failed.",
	})
)
