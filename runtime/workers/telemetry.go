package workers

import (
	"context"
	"courier/observability"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker periodically logs pipeline counters together with the
// server's own process metrics (RSS, CPU, status).
type TelemetryWorker struct {
	log      *slog.Logger
	monitor  *observability.Monitor
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, monitor *observability.Monitor, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, monitor: monitor, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "error", err)
				continue
			}

			stats := w.monitor.Snapshot()
			w.log.Info("telemetry",
				"active_channels", stats.ActiveChannels,
				"messages_sent", stats.MessagesSent,
				"delivered_live", stats.DeliveredLive,
				"send_failures", stats.SendFailures,
				"history_reads", stats.HistoryReads,
				"index_dropped", stats.IndexDropped,
				"alloc_mb", stats.AllocMemMb,
				"num_gc", stats.NumGC,
				"rss_bytes", rss,
				"cpu_percent", cpu,
				"pid_status", status,
			)
		}
	}
}

func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
