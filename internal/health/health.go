package health

import (
	"context"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Checker struct {
	db *pgxpool.Pool
}

type Status struct {
	Status     string         `json:"status"`
	Database   DatabaseStatus `json:"database"`
	Goroutines int            `json:"goroutines"`
	Memory     MemoryStats    `json:"memory"`
}

type DatabaseStatus struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type MemoryStats struct {
	AllocMB float64 `json:"alloc_mb"`
	SysMB   float64 `json:"sys_mb"`
	NumGC   uint32  `json:"num_gc"`
}

func NewChecker(db *pgxpool.Pool) *Checker {
	return &Checker{db: db}
}

// Check pings the database and samples runtime stats. The server is
// unhealthy exactly when the store is unreachable.
func (c *Checker) Check() Status {
	dbStatus := c.checkDatabase()

	status := "healthy"
	if dbStatus.Status != "healthy" {
		status = "unhealthy"
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return Status{
		Status:     status,
		Database:   dbStatus,
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryStats{
			AllocMB: float64(memStats.Alloc) / 1024 / 1024,
			SysMB:   float64(memStats.Sys) / 1024 / 1024,
			NumGC:   memStats.NumGC,
		},
	}
}

func (c *Checker) checkDatabase() DatabaseStatus {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := c.db.Ping(ctx)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseStatus{Status: "unhealthy", ResponseTime: elapsed}
	}
	return DatabaseStatus{Status: "healthy", ResponseTime: elapsed}
}
