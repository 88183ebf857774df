package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	JobResultSucceeded = "succeeded"
	JobResultFailed    = "failed"
)

// Jobs records maintenance job runs.
type Jobs struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

func NewJobs(reg prometheus.Registerer) *Jobs {
	if reg == nil {
		return &Jobs{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maintenance_job_duration_seconds",
		Help:    "Duration of maintenance job runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_jobs_total",
		Help: "Maintenance job runs by job and result.",
	}, []string{"job", "result"})
	reg.MustRegister(duration, runs)
	return &Jobs{duration: duration, runs: runs}
}

// Observe records one run of job. A non-nil err counts as a failure.
func (j *Jobs) Observe(job string, elapsed time.Duration, err error) {
	if j == nil || j.runs == nil {
		return
	}
	job = normalizeLabel(job)
	result := JobResultSucceeded
	if err != nil {
		result = JobResultFailed
	}
	j.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	j.runs.WithLabelValues(job, result).Inc()
}
