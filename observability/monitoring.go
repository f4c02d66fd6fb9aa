// Package observability aggregates runtime counters for the delivery
// pipeline. Counters are atomic so the hot path never takes a lock.
package observability

import (
	"runtime"
	"sync/atomic"
)

// Stats is a point-in-time snapshot exposed by the debug endpoint.
type Stats struct {
	ActiveChannels int    `json:"active_channels"`
	MessagesSent   uint64 `json:"messages_sent"`
	DeliveredLive  uint64 `json:"delivered_live"`
	SendFailures   uint64 `json:"send_failures"`
	HistoryReads   uint64 `json:"history_reads"`
	IndexDropped   uint64 `json:"index_dropped"`
	AllocMemMb     uint64 `json:"alloc_mem_mb"`
	NumGC          uint32 `json:"num_gc"`
}

// Monitor collects pipeline metrics. The active-channel gauge is provided
// by the caller so the monitor never holds a reference to the registry.
type Monitor struct {
	messagesSent  atomic.Uint64
	deliveredLive atomic.Uint64
	sendFailures  atomic.Uint64
	historyReads  atomic.Uint64
	indexDropped  atomic.Uint64
	channelGauge  func() int
}

func NewMonitor(channelGauge func() int) *Monitor {
	if channelGauge == nil {
		channelGauge = func() int { return 0 }
	}
	return &Monitor{channelGauge: channelGauge}
}

func (m *Monitor) IncrMessagesSent()  { m.messagesSent.Add(1) }
func (m *Monitor) IncrDeliveredLive() { m.deliveredLive.Add(1) }
func (m *Monitor) IncrSendFailures()  { m.sendFailures.Add(1) }
func (m *Monitor) IncrHistoryReads()  { m.historyReads.Add(1) }
func (m *Monitor) IncrIndexDropped()  { m.indexDropped.Add(1) }

// Snapshot reads all counters plus Go memory stats.
func (m *Monitor) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Stats{
		ActiveChannels: m.channelGauge(),
		MessagesSent:   m.messagesSent.Load(),
		DeliveredLive:  m.deliveredLive.Load(),
		SendFailures:   m.sendFailures.Load(),
		HistoryReads:   m.historyReads.Load(),
		IndexDropped:   m.indexDropped.Load(),
		AllocMemMb:     mem.Alloc / 1024 / 1024,
		NumGC:          mem.NumGC,
	}
}
