package metrics

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

type redisCollector struct {
	rdb    *redis.Client
	logger *slog.Logger

	imagesTotalDesc *prometheus.Desc
	envImagesDesc   *prometheus.Desc
}

func newRedisCollector(rdb *redis.Client, logger *slog.Logger) *redisCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisCollector{
		rdb:    rdb,
		logger: logger,
		imagesTotalDesc: prometheus.NewDesc(
			"imagevault_images_stored",
			"Current number of image records stored.",
			nil,
			nil,
		),
		envImagesDesc: prometheus.NewDesc(
			"imagevault_environment_images",
			"Current number of image records per environment.",
			[]string{"environment_id"},
			nil,
		),
	}
}

func (c *redisCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.imagesTotalDesc
	ch <- c.envImagesDesc
}

func (c *redisCollector) Collect(ch chan<- prometheus.Metric) {
	if c.rdb == nil {
		return
	}

	// Keep Redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	total, err := c.rdb.HLen(ctx, "imagevault:images").Result()
	if err != nil && err != redis.Nil {
		c.logger.Warn("prometheus redis collector failed", "err", err)
		return
	}
	emitGauge(ch, c.imagesTotalDesc, float64(total))

	iter := c.rdb.Scan(ctx, 0, "imagevault:env:*:images", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		n, err := c.rdb.ZCard(ctx, key).Result()
		if err != nil {
			continue
		}
		envID := strings.TrimSuffix(strings.TrimPrefix(key, "imagevault:env:"), ":images")
		emitGauge(ch, c.envImagesDesc, float64(n), envID)
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("prometheus redis collector scan failed", "err", err)
	}
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

var registerRedisCollectorOnce sync.Once

func RegisterRedisCollector(rdb *redis.Client, logger *slog.Logger) {
	registerRedisCollectorOnce.Do(func() {
		prometheus.MustRegister(newRedisCollector(rdb, logger))
	})
}
