// Package metrics собирает счётчики затирания в отдельный реестр Prometheus.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"netnuke/internal/wipe"
)

// Collector реализует wipe.Recorder
type Collector struct {
	reg *prometheus.Registry

	bytesWritten *prometheus.CounterVec
	writeErrors  *prometheus.CounterVec
	passes       *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	downgrades   *prometheus.CounterVec
	buildInfo    prometheus.Gauge
}

var _ wipe.Recorder = (*Collector)(nil)

// New создаёт коллектор с собственным реестром
func New(version string) *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		bytesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netnuke_bytes_written_total",
				Help: "Total number of bytes written by device.",
			},
			[]string{"device"},
		),
		writeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netnuke_write_errors_total",
				Help: "Total number of failed block writes by error class.",
			},
			[]string{"class"},
		),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netnuke_passes_total",
				Help: "Total number of wipe passes by outcome.",
			},
			[]string{"status"},
		),
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "netnuke_pass_duration_seconds",
				Help:    "Duration of wipe passes by outcome in seconds.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"status"},
		),
		downgrades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netnuke_block_size_downgrades_total",
				Help: "Total number of block size downgrades after misaligned writes.",
			},
			[]string{"device"},
		),
		buildInfo: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "netnuke_build_info",
			Help:        "Build info of netnuke.",
			ConstLabels: prometheus.Labels{"version": version},
		}),
	}

	c.reg.MustRegister(c.bytesWritten, c.writeErrors, c.passes, c.passDuration, c.downgrades, c.buildInfo)
	c.buildInfo.Set(1)

	return c
}

// Registry реестр коллектора
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

func (c *Collector) BytesWritten(device string, n uint64) {
	c.bytesWritten.WithLabelValues(device).Add(float64(n))
}

func (c *Collector) WriteError(class wipe.WriteErrorClass) {
	c.writeErrors.WithLabelValues(string(class)).Inc()
}

func (c *Collector) PassFinished(outcome string, seconds float64) {
	c.passes.WithLabelValues(outcome).Inc()
	c.passDuration.WithLabelValues(outcome).Observe(seconds)
}

func (c *Collector) BlockSizeDowngraded(device string) {
	c.downgrades.WithLabelValues(device).Inc()
}

// WriteTextfile сохраняет метрики для textfile-коллектора node_exporter
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ошибка создания директории метрик: %w", err)
	}

	if err := prometheus.WriteToTextfile(path, c.reg); err != nil {
		return fmt.Errorf("ошибка записи метрик в %s: %w", path, err)
	}

	return nil
}
