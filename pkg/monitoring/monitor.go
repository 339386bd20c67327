package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// ScorerCalls 外部评分接口调用次数，kind: score|generate|summary
	ScorerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_scorer_calls_total",
			Help: "Total number of calls to the external scorer",
		},
		[]string{"kind", "outcome"},
	)

	ScorerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_scorer_call_duration_seconds",
			Help:    "Duration of calls to the external scorer",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30},
		},
		[]string{"kind"},
	)

	QuizScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_score_percent",
			Help:    "Score percent of graded quiz submissions",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(ScorerCalls)
		prometheus.MustRegister(ScorerDuration)
		prometheus.MustRegister(QuizScore)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
