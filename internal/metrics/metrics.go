package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "imagevault"

var (
	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Total number of access tokens issued, labeled by token kind.",
		},
		[]string{"kind"},
	)

	AuthorizeDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorize_decisions_total",
			Help:      "Total number of token authorization decisions, labeled by outcome and denial reason.",
		},
		[]string{"outcome", "reason"},
	)

	ImagesUploadedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_uploaded_total",
			Help:      "Total number of images uploaded, labeled by content type.",
		},
		[]string{"content_type"},
	)

	ImageDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_downloads_total",
			Help:      "Total number of image downloads served, labeled by route.",
		},
		[]string{"route"},
	)

	UploadSizeBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size distribution of uploaded image files (bytes).",
			Buckets:   []float64{1024, 10240, 102400, 512000, 1048576, 2097152, 5242880},
		},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by the rate limiter, labeled by bucket.",
		},
		[]string{"bucket"},
	)
)

func init() {
	prometheus.MustRegister(
		TokensIssuedTotal,
		AuthorizeDecisionsTotal,
		ImagesUploadedTotal,
		ImageDownloadsTotal,
		UploadSizeBytes,
		RateLimitHitsTotal,
	)
}
