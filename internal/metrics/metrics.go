// Package metrics agrupa los collectors Prometheus de fabric. Vive en un paquete propio
// para evitar ciclos de import entre executor, persistence y rpc.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	JobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fabric_jobs_total",
		Help: "Jobs completados por acción y resultado",
	}, []string{"action", "outcome"})

	JobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fabric_job_duration_seconds",
		Help:    "Duración de ejecución de cada job",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"action"})

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fabric_executor_queue_depth",
		Help: "Procedimientos encolados esperando un worker",
	})

	PersisterReconnects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fabric_persister_reconnects_total",
		Help: "Reconexiones del persister tras un error transitorio",
	}, []string{"result"})

	RPCFaults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fabric_rpc_faults_total",
		Help: "Faults devueltos por el transporte RPC",
	}, []string{"code"})
)

// Register registra los collectors en el registry dado (o el default si es nil).
// Registrar dos veces no es error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{JobsTotal, JobDuration, QueueDepth, PersisterReconnects, RPCFaults} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
