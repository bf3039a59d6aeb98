package wait

import (
	"context"
	"sync"
	"time"
)

/*
对系统 WaitGroup的封装：可以按 ctx / 超时 放弃等待
*/
type Wait struct {
	wait sync.WaitGroup
}

func (w *Wait) Add(delta int) {
	w.wait.Add(delta)
}

func (w *Wait) Done() {
	w.wait.Done()
}

func (w *Wait) Wait() {
	w.wait.Wait()
}

// 启动一个协程，结束时 Done
func (w *Wait) Go(fn func()) {
	w.wait.Add(1)
	go func() {
		defer w.wait.Done()
		fn()
	}()
}

// 等待结束 or ctx 结束，返回 ctx.Err()
func (w *Wait) WaitContext(ctx context.Context) error {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		w.wait.Wait()
	}()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// 超时等待，超时返回 true
func (w *Wait) WaitWithTimeout(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return w.WaitContext(ctx) != nil
}
