// Package metrics holds the Prometheus collectors of the exam backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "exstem"

var (
	// ExamAccess counts gate decisions.
	// Labels: operation (open, verify, submit, upload, attendance), outcome.
	ExamAccess = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "exam",
		Name:      "access_total",
		Help:      "Exam access decisions by operation and outcome",
	}, []string{"operation", "outcome"})

	// Submissions counts submission attempts.
	// Labels: outcome (accepted, duplicate, rejected, error).
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "submission",
		Name:      "total",
		Help:      "Submission attempts by outcome",
	}, []string{"outcome"})

	// Evaluations counts scoring attempts.
	// Labels: outcome (evaluated, reevaluated, rejected, error).
	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "evaluation",
		Name:      "total",
		Help:      "Evaluation attempts by outcome",
	}, []string{"outcome"})

	// AttendanceMarks counts presence marks.
	// Labels: result (created, existing).
	AttendanceMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "attendance",
		Name:      "marks_total",
		Help:      "Attendance marks by whether a new record was created",
	}, []string{"result"})

	// UploadBytes measures accepted answer-sheet sizes.
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upload",
		Name:      "size_bytes",
		Help:      "Size of accepted answer-sheet uploads",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 7),
	})

	// httpDuration measures request latency per route template.
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Middleware records request latency labelled by the matched route template,
// so path parameters do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
