package client

import (
	"context"
	"sync"

	"github.com/gofish2020/easyclient/redis/command"
)

/*
RedisConnection 异步连接：每个命令方法立即返回 *command.Command，调用方自行等待结果
多个协程可以并发调用同一个连接
*/
type RedisConnection struct {
	handler  *ChannelHandler
	writer   *ChannelWriter
	tx       *transaction
	endpoint *endpoint

	mu   sync.Mutex
	opts Options
}

func newRedisConnection(opts Options) *RedisConnection {
	c := &RedisConnection{opts: opts}
	c.writer = NewChannelWriter()
	c.tx = newTransaction(c.writer)
	c.endpoint = newEndpoint(c, c.writer)
	c.handler = NewChannelHandler(c, c.shutdown)
	return c
}

// 建立连接
func Dial(ctx context.Context, opts Options) (*RedisConnection, error) {
	c := newRedisConnection(opts)
	if err := c.endpoint.connect(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// 发送命令：事务中的命令进入队列，否则直接写入
func (c *RedisConnection) Dispatch(cmd command.RedisCommand) (command.RedisCommand, error) {
	if c.handler.IsClosed() {
		return cmd, command.ErrConnectionClosed
	}
	if err := c.tx.dispatch(cmd); err != nil {
		return cmd, err
	}
	return cmd, nil
}

func submit[T any](c *RedisConnection, typ command.CommandType, output command.Output[T], args *command.CommandArgs) (*command.Command[T], error) {
	cmd := command.New[T](typ, output, args)
	if _, err := c.Dispatch(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

// 服务端成功回复后执行 then
func submitThen[T any](c *RedisConnection, typ command.CommandType, output command.Output[T], args *command.CommandArgs, then func()) (*command.Command[T], error) {
	cmd := command.New[T](typ, output, args)
	cmd.OnSuccess(then)
	if _, err := c.Dispatch(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (c *RedisConnection) Close() error {
	return c.handler.Close()
}

// 连接关闭时执行一次
func (c *RedisConnection) shutdown() {
	c.tx.reset(command.ErrConnectionClosed)
	c.writer.Close()
	c.endpoint.close()
}

func (c *RedisConnection) IsOpen() bool {
	return c.handler.IsOpen()
}

func (c *RedisConnection) IsMulti() bool {
	return c.tx.isActive()
}

func (c *RedisConnection) Handler() *ChannelHandler {
	return c.handler
}

func (c *RedisConnection) Writer() *ChannelWriter {
	return c.writer
}

func (c *RedisConnection) Options() Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

func (c *RedisConnection) updateOptions(update func(opts *Options)) {
	c.mu.Lock()
	update(&c.opts)
	c.mu.Unlock()
}
