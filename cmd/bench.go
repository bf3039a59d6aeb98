package cmd

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofish2020/easyclient/redis/client"
	"github.com/gofish2020/easyclient/tool/logger"
	waitgroup "github.com/gofish2020/easyclient/tool/wait"
	"github.com/gofish2020/easyclient/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	benchCmd = &cobra.Command{
		Use:               "bench",
		Short:             "Concurrent SET/GET benchmark through a connection pool",
		Args:              cobra.NoArgs,
		PersistentPreRunE: setupClient,
		RunE:              runBench,
	}
)

func init() {
	benchCmd.Flags().Int("workers", 10, "number of concurrent workers")
	benchCmd.Flags().Int("requests", 1000, "requests per worker")
	benchCmd.Flags().String("key-prefix", "__bench:"+utils.RandString(8), "prefix of the keys written")
	benchCmd.Flags().Bool("metrics", false, "print client metrics (prometheus format) after the run")
}

type benchResult struct {
	requests int64
	failed   int64
	elapsed  time.Duration
}

func (r benchResult) String() string {
	qps := float64(r.requests) / r.elapsed.Seconds()
	return fmt.Sprintf("requests: %d, failed: %d, elapsed: %s, %.0f requests/s", r.requests, r.failed, r.elapsed, qps)
}

func runBench(cmd *cobra.Command, _ []string) error {
	workers := viper.GetInt("workers")
	requests := viper.GetInt("requests")
	prefix := viper.GetString("key-prefix")
	if workers <= 0 || requests <= 0 {
		return fmt.Errorf("workers and requests must be positive")
	}

	benchOpts := opts
	if benchOpts.PoolMaxActive < workers {
		benchOpts.PoolMaxActive = workers
	}
	benchOpts.PoolMaxIdle = benchOpts.PoolMaxActive

	c := client.NewRedisClient(benchOpts)
	defer c.Shutdown()
	p, err := c.NewPool()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "bench %s: %d workers x %d requests (SET + GET)\n", benchOpts.Addr, workers, requests)
	result := bench(cmd.Context(), p, workers, requests, prefix)
	fmt.Fprintln(cmd.OutOrStdout(), result)

	if viper.GetBool("metrics") {
		client.WriteMetrics(cmd.OutOrStdout())
	}
	return nil
}

// 每个 worker 借出一个连接，执行 requests 次 SET + GET
func bench(ctx context.Context, p *client.RedisConnectionPool, workers, requests int, prefix string) benchResult {
	var total, failed atomic.Int64
	var w waitgroup.Wait

	start := time.Now()
	for i := 0; i < workers; i++ {
		worker := i
		w.Go(func() {
			pc, err := p.Allocate(ctx)
			if err != nil {
				failed.Add(int64(requests))
				total.Add(int64(requests))
				return
			}
			defer pc.Close()

			redis := client.NewSyncConnection(pc, p.Options().Timeout)
			key := prefix + ":" + strconv.Itoa(worker)
			for j := 0; j < requests; j++ {
				total.Add(1)
				value := strconv.Itoa(j)
				if _, err := redis.Set(key, value); err != nil {
					failed.Add(1)
					continue
				}
				if got, err := redis.Get(key); err != nil || got != value {
					failed.Add(1)
				}
			}
			redis.Del(key)
		})
	}
	if err := w.WaitContext(ctx); err != nil {
		logger.Warnf("bench interrupted: %v", err)
	}

	return benchResult{
		requests: total.Load(),
		failed:   failed.Load(),
		elapsed:  time.Since(start),
	}
}
