package monitoring

import (
	"strconv"
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

	AssessmentsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_started_total",
			Help: "Total number of assessment sessions created",
		},
		[]string{"status"},
	)

	AssessmentsEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assessments_evaluated_total",
			Help: "Total number of sessions scored into feedback",
		},
	)

	QuizGenerationRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_generation_retries_total",
			Help: "Retries against the quiz generation provider",
		},
	)

	QuizGenerationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_generation_failures_total",
			Help: "Quiz generation attempts exhausted without a usable quiz",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(AssessmentsStarted)
	prometheus.MustRegister(AssessmentsEvaluated)
	prometheus.MustRegister(QuizGenerationRetries)
	prometheus.MustRegister(QuizGenerationFailures)
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
