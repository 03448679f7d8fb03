package dbpool

// Stats is a point-in-time snapshot of pool state.
type Stats struct {
	MaxSize     int `json:"max_size"`
	Provisioned int `json:"provisioned"`
	Idle        int `json:"idle"`
	InUse       int `json:"in_use"`

	// AcquireCount is the number of connections handed to borrowers.
	AcquireCount uint64 `json:"acquire_count"`
	// WaitCount is the number of borrows that had to wait for a free slot.
	WaitCount         uint64 `json:"wait_count"`
	CreateCount       uint64 `json:"create_count"`
	CreateFailedCount uint64 `json:"create_failed_count"`
	DisposeCount      uint64 `json:"dispose_count"`
	// ExpireCount is the number of connections closed for reaching the TTL.
	ExpireCount uint64 `json:"expire_count"`
}

// StatsSource is anything that can report pool Stats.
type StatsSource interface {
	Stats() Stats
}

// Stats returns current pool statistics.
func (p *Pool[C]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		MaxSize:           p.cfg.MaxSize,
		Provisioned:       p.provisioned,
		Idle:              len(p.idle),
		InUse:             p.provisioned - len(p.idle),
		AcquireCount:      p.acquireCount,
		WaitCount:         p.waitCount,
		CreateCount:       p.createCount,
		CreateFailedCount: p.createFailedCount,
		DisposeCount:      p.disposeCount,
		ExpireCount:       p.expireCount,
	}
}
