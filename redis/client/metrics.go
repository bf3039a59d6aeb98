package client

import (
	"io"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
)

// 客户端指标（Prometheus 文本格式输出）
var (
	commandsWritten   = metrics.NewCounter("easyclient_commands_written_total")
	repliesMatched    = metrics.NewCounter("easyclient_replies_matched_total")
	repliesSkipped    = metrics.NewCounter(`easyclient_replies_skipped_total{reason="done"}`)
	commandsFailed    = metrics.NewCounter(`easyclient_commands_failed_total{reason="connection_closed"}`)
	writeErrors       = metrics.NewCounter("easyclient_write_errors_total")
	unsolicited       = metrics.NewCounter("easyclient_unsolicited_replies_total")
	reconnects        = metrics.NewCounter("easyclient_reconnects_total")
	transactionsFlush = metrics.NewCounter(`easyclient_transactions_total{result="exec"}`)
	transactionsDrop  = metrics.NewCounter(`easyclient_transactions_total{result="discard"}`)

	poolCreated  = metrics.NewCounter("easyclient_pool_connections_created_total")
	poolDestroy  = metrics.NewCounter("easyclient_pool_connections_destroyed_total")
	poolBorrowed = metrics.NewCounter("easyclient_pool_borrowed_total")
	poolReleased = metrics.NewCounter("easyclient_pool_released_total")
)

// 所有连接上等待回复的命令数
var inflightTotal atomic.Int64

var _ = metrics.NewGauge("easyclient_inflight_commands", func() float64 {
	return float64(inflightTotal.Load())
})

// 输出所有指标
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
