package dbpool

import "github.com/prometheus/client_golang/prometheus"

// Collector exports pool Stats as Prometheus metrics.
type Collector struct {
	src StatsSource

	maxSize     *prometheus.Desc
	provisioned *prometheus.Desc
	idle        *prometheus.Desc
	inUse       *prometheus.Desc
	acquires    *prometheus.Desc
	waits       *prometheus.Desc
	creates     *prometheus.Desc
	createFails *prometheus.Desc
	disposals   *prometheus.Desc
	expirations *prometheus.Desc
}

// NewCollector returns a collector reading from src. constLabels are attached
// to every metric, e.g. to tell several pools apart.
func NewCollector(src StatsSource, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("dbpool_"+name, help, nil, constLabels)
	}
	return &Collector{
		src:         src,
		maxSize:     desc("connections_max", "Maximum number of open connections."),
		provisioned: desc("connections_provisioned", "Connections currently open, idle or borrowed."),
		idle:        desc("connections_idle", "Connections waiting in the pool."),
		inUse:       desc("connections_in_use", "Connections currently borrowed."),
		acquires:    desc("acquire_total", "Connections handed to borrowers."),
		waits:       desc("acquire_wait_total", "Borrows that waited for a free connection."),
		creates:     desc("create_total", "Connections opened."),
		createFails: desc("create_failed_total", "Failed attempts to open a connection."),
		disposals:   desc("dispose_total", "Connections closed."),
		expirations: desc("expire_total", "Connections closed for reaching the TTL."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxSize
	ch <- c.provisioned
	ch <- c.idle
	ch <- c.inUse
	ch <- c.acquires
	ch <- c.waits
	ch <- c.creates
	ch <- c.createFails
	ch <- c.disposals
	ch <- c.expirations
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()

	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	gauge(c.maxSize, s.MaxSize)
	gauge(c.provisioned, s.Provisioned)
	gauge(c.idle, s.Idle)
	gauge(c.inUse, s.InUse)
	counter(c.acquires, s.AcquireCount)
	counter(c.waits, s.WaitCount)
	counter(c.creates, s.CreateCount)
	counter(c.createFails, s.CreateFailedCount)
	counter(c.disposals, s.DisposeCount)
	counter(c.expirations, s.ExpireCount)
}
