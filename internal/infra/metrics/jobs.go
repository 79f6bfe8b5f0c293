package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(workerPoolTasks) }

var workerPoolTasks = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "worker_pool_tasks",
		Help: "Background task counters of the notification pool, labeled by state.",
	},
	[]string{"state"}, // 'queued', 'done', 'failed', 'dropped'
)

func SetWorkerPoolStats(queued int, done, failed, dropped int64) {
	workerPoolTasks.WithLabelValues("queued").Set(float64(queued))
	workerPoolTasks.WithLabelValues("done").Set(float64(done))
	workerPoolTasks.WithLabelValues("failed").Set(float64(failed))
	workerPoolTasks.WithLabelValues("dropped").Set(float64(dropped))
}
