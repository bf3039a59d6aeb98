package client

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/gofish2020/easyclient/redis/command"
	"github.com/gofish2020/easyclient/tool/logger"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

/*
RedisClient 连接工厂：
1.记录所有打开的连接/连接池，Shutdown 时统一关闭
2.连接/连接池关闭时，自动从记录中删除
3.按地址共享连接池
*/
type RedisClient struct {
	opts Options

	closeables *xsync.MapOf[io.Closer, struct{}]
	pools      *xsync.MapOf[string, *RedisConnectionPool]

	shutdown atomic.Bool
}

func NewRedisClient(opts Options) *RedisClient {
	return &RedisClient{
		opts:       opts,
		closeables: xsync.NewMapOf[io.Closer, struct{}](),
		pools:      xsync.NewMapOf[string, *RedisConnectionPool](),
	}
}

func (c *RedisClient) Register(closer io.Closer) {
	c.closeables.Store(closer, struct{}{})
}

func (c *RedisClient) Unregister(closer io.Closer) {
	c.closeables.Delete(closer)
}

// 打开中的连接/连接池个数
func (c *RedisClient) Open() int {
	return c.closeables.Size()
}

func (c *RedisClient) Options() Options {
	return c.opts
}

// 异步连接
func (c *RedisClient) Connect(ctx context.Context) (*RedisConnection, error) {
	return c.ConnectTo(ctx, c.opts.Addr)
}

func (c *RedisClient) ConnectTo(ctx context.Context, addr string) (*RedisConnection, error) {
	if c.shutdown.Load() {
		return nil, errors.Wrap(command.ErrConnectionClosed, "client shutdown")
	}
	opts := c.opts
	opts.Addr = addr
	conn, err := Dial(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := conn.handler.RegisterCloseables(c, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// 同步连接
func (c *RedisClient) ConnectSync(ctx context.Context) (*SyncConnection, error) {
	conn, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return NewSyncConnection(conn, c.opts.Timeout), nil
}

// 新建连接池（连接在第一次 Allocate 时创建）
func (c *RedisClient) NewPool() (*RedisConnectionPool, error) {
	return c.newPool(c.opts.Addr)
}

func (c *RedisClient) newPool(addr string) (*RedisConnectionPool, error) {
	if c.shutdown.Load() {
		return nil, errors.Wrap(command.ErrConnectionClosed, "client shutdown")
	}
	opts := c.opts
	opts.Addr = addr
	p := NewRedisConnectionPool(opts)
	if err := p.handler.RegisterCloseables(c, p); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// 按地址共享的连接池
func (c *RedisClient) Pool(addr string) (*RedisConnectionPool, error) {
	for {
		var err error
		p, _ := c.pools.Compute(addr, func(old *RedisConnectionPool, loaded bool) (*RedisConnectionPool, bool) {
			if loaded && old.IsOpen() {
				return old, false
			}
			var p *RedisConnectionPool
			p, err = c.newPool(addr)
			if err != nil {
				return nil, true // 删除
			}
			return p, false
		})
		if err != nil {
			return nil, err
		}
		if err := c.trackPool(addr, p); err != nil {
			// 登记前连接池已关闭，重新创建
			logger.Debugf("shared pool %s: %v", addr, err)
			continue
		}
		return p, nil
	}
}

// 连接池关闭后从共享记录中删除
func (c *RedisClient) trackPool(addr string, p *RedisConnectionPool) error {
	if err := p.handler.AddListener(c.pools, func() { c.removePool(addr, p) }); err != nil {
		c.removePool(addr, p)
		return err
	}
	return nil
}

func (c *RedisClient) removePool(addr string, p *RedisConnectionPool) {
	c.pools.Compute(addr, func(old *RedisConnectionPool, loaded bool) (*RedisConnectionPool, bool) {
		return old, !loaded || old == p
	})
}

// 关闭所有连接和连接池
func (c *RedisClient) Shutdown() {
	if !c.shutdown.CompareAndSwap(false, true) {
		return
	}
	var closeables []io.Closer
	c.closeables.Range(func(closer io.Closer, _ struct{}) bool {
		closeables = append(closeables, closer)
		return true
	})
	for _, closer := range closeables {
		if err := closer.Close(); err != nil {
			logger.Debug("shutdown close: ", err)
		}
	}
	c.closeables.Clear()
	c.pools.Clear()
}
