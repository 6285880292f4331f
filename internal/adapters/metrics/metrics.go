package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SSDP
	SSDPAnnouncements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msd",
			Name:      "ssdp_notify_total",
			Help:      "SSDP NOTIFY datagrams sent",
		},
		[]string{"nts"},
	)

	SSDPDiscoveryRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "msd",
			Name:      "ssdp_msearch_total",
			Help:      "M-SEARCH requests received",
		},
	)

	SSDPDiscoveryResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "msd",
			Name:      "ssdp_msearch_responses_total",
			Help:      "M-SEARCH responses sent",
		},
	)

	SSDPErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msd",
			Name:      "ssdp_errors_total",
			Help:      "SSDP socket errors after retries",
		},
		[]string{"op"},
	)

	// ContentDirectory
	BrowseRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msd",
			Name:      "browse_requests_total",
			Help:      "ContentDirectory Browse requests by flag",
		},
		[]string{"flag"},
	)

	SOAPFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msd",
			Name:      "soap_faults_total",
			Help:      "SOAP faults returned by UPnP error code",
		},
		[]string{"service", "code"},
	)

	// Streaming
	StreamBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "msd",
			Name:      "stream_bytes_total",
			Help:      "Media bytes written to clients",
		},
	)

	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "msd",
			Name:      "active_streams",
			Help:      "Media responses currently streaming",
		},
	)

	StreamResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msd",
			Name:      "stream_responses_total",
			Help:      "Media responses by status code",
		},
		[]string{"status"},
	)

	// Thumbnails and probes
	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "msd",
			Name:      "thumbnail_cache_hits_total",
			Help:      "Thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "msd",
			Name:      "thumbnail_cache_misses_total",
			Help:      "Thumbnail cache misses",
		},
	)

	ThumbnailCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "msd",
			Name:      "thumbnail_cache_entries",
			Help:      "Thumbnails currently cached",
		},
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "msd",
			Name:      "probe_duration_seconds",
			Help:      "Time spent running ffprobe",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
