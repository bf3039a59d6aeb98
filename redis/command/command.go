package command

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofish2020/easyclient/redis/protocol"
	"github.com/gofish2020/easyclient/tool/logger"
	"github.com/pkg/errors"
)

// 写入连接、等待回复的命令（不关心结果类型）
type RedisCommand interface {
	Type() CommandType
	Line() [][]byte

	// 保存服务端回复（命令已结束则忽略）
	SetReply(reply protocol.Reply)
	// Pending -> Completed
	Complete() error
	// Pending -> Completed，并携带错误（连接断开/事务放弃 等）
	CompleteExceptionally(err error) bool
	// Pending -> Cancelled
	Cancel(mayInterrupt bool) bool

	IsDone() bool
	IsCancelled() bool
}

const (
	statePending int32 = iota
	stateCompleted
	stateCancelled
)

/*
Command 一个可以等待结果的命令：
1.状态只能从 Pending 变为 Completed/Cancelled 一次
2.状态变化时关闭 done，唤醒所有等待者
*/
type Command[T any] struct {
	typ    CommandType
	args   *CommandArgs
	output Output[T]

	mu    sync.Mutex
	state atomic.Int32
	err   error // 异常完成的原因
	done  chan struct{}

	replied   bool // 收到过服务端回复
	onSuccess []func()
}

func New[T any](typ CommandType, output Output[T], args *CommandArgs) *Command[T] {
	return &Command[T]{
		typ:    typ,
		args:   args,
		output: output,
		done:   make(chan struct{}),
	}
}

func (c *Command[T]) Type() CommandType {
	return c.typ
}

func (c *Command[T]) Args() *CommandArgs {
	return c.args
}

func (c *Command[T]) Line() [][]byte {
	return c.args.Line(c.typ)
}

func (c *Command[T]) Output() Output[T] {
	return c.output
}

func (c *Command[T]) SetReply(reply protocol.Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Load() != statePending {
		return
	}
	c.replied = true
	if errReply, ok := reply.(protocol.ErrorReply); ok {
		c.output.SetError(errReply.Error())
		return
	}
	if err := c.output.Set(reply); err != nil {
		logger.Debugf("command %s decode reply: %v", c.typ, err)
	}
}

func (c *Command[T]) Complete() error {
	if !c.transition(stateCompleted, nil) {
		logger.Warnf("command %s: %v", c.typ, ErrAlreadyCompleted)
		return ErrAlreadyCompleted
	}
	return nil
}

func (c *Command[T]) CompleteExceptionally(err error) bool {
	return c.transition(stateCompleted, err)
}

func (c *Command[T]) Cancel(mayInterrupt bool) bool {
	return c.transition(stateCancelled, nil)
}

func (c *Command[T]) transition(state int32, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Load() != statePending {
		return false
	}
	c.err = err
	c.state.Store(state)
	if state == stateCompleted && err == nil && c.replied && c.output.Error() == nil {
		for _, fn := range c.onSuccess {
			fn()
		}
	}
	c.onSuccess = nil
	close(c.done)
	return true
}

// 注册回调：服务端成功回复后执行，先于唤醒等待者
// 回调持有命令的锁，不能再调用该命令的方法
func (c *Command[T]) OnSuccess(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Load() != statePending {
		return
	}
	c.onSuccess = append(c.onSuccess, fn)
}

func (c *Command[T]) IsDone() bool {
	return c.state.Load() != statePending
}

func (c *Command[T]) IsCancelled() bool {
	return c.state.Load() == stateCancelled
}

// 结束通知
func (c *Command[T]) Done() <-chan struct{} {
	return c.done
}

// 阻塞等待结果
func (c *Command[T]) Get() (T, error) {
	<-c.done
	return c.result()
}

// timeout <= 0 不等待，只检查当前状态
func (c *Command[T]) GetWithTimeout(timeout time.Duration) (T, error) {
	ok, _ := c.Await(context.Background(), timeout)
	if !ok {
		var zero T
		return zero, ErrTimeout
	}
	return c.result()
}

// ctx 结束时返回 ErrInterrupted，命令本身保持不变
func (c *Command[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.result()
	default:
	}
	select {
	case <-c.done:
		return c.result()
	case <-ctx.Done():
		var zero T
		return zero, interrupted(ctx)
	}
}

// 等待命令结束：true 已结束，false 超时
func (c *Command[T]) Await(ctx context.Context, timeout time.Duration) (bool, error) {
	select {
	case <-c.done:
		return true, nil
	default:
	}
	if ctx.Err() != nil {
		return false, interrupted(ctx)
	}
	if timeout <= 0 {
		return false, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-c.done:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, interrupted(ctx)
	}
}

func interrupted(ctx context.Context) error {
	return errors.WithMessage(ErrInterrupted, ctx.Err().Error())
}

func (c *Command[T]) result() (T, error) {
	var zero T
	if c.state.Load() == stateCancelled {
		return zero, ErrCancelled
	}
	c.mu.Lock()
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return zero, err
	}
	return c.output.Get()
}

// 异常完成的原因 or 服务端返回的错误
func (c *Command[T]) Error() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return c.output.Error()
}

func (c *Command[T]) String() string {
	state := "pending"
	switch c.state.Load() {
	case stateCompleted:
		state = "completed"
	case stateCancelled:
		state = "cancelled"
	}
	return fmt.Sprintf("Command [type=%s, args=%s, state=%s]", c.typ, c.args, state)
}
