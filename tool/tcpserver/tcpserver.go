package tcpserver

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofish2020/easyclient/tool/logger"
	"github.com/gofish2020/easyclient/tool/wait"
	"github.com/pkg/errors"
)

// 处理一个连接；ctx 在服务关闭时取消
type HandlerFunc func(ctx context.Context, conn net.Conn)

type TCPConfig struct {
	Addr string // 默认 127.0.0.1:0
	// 关闭时等待连接处理结束的最长时间
	CloseTimeout time.Duration
}

/*
TCPServer 最简单的tcp服务：每个连接一个协程，交给 HandlerFunc 处理
用于按脚本模拟服务端行为（不回复、多回复、主动断开）
*/
type TCPServer struct {
	listener      net.Listener
	waitDone      wait.Wait // 优雅关闭（等待）
	clientCounter atomic.Int64
	conf          TCPConfig
	closeTcp      atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	handler HandlerFunc
}

func Listen(conf TCPConfig, handler HandlerFunc) (*TCPServer, error) {
	if conf.Addr == "" {
		conf.Addr = "127.0.0.1:0"
	}
	if conf.CloseTimeout <= 0 {
		conf.CloseTimeout = time.Second
	}
	listener, err := net.Listen("tcp", conf.Addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", conf.Addr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &TCPServer{
		listener: listener,
		conf:     conf,
		ctx:      ctx,
		cancel:   cancel,
		conns:    make(map[net.Conn]struct{}),
		handler:  handler,
	}
	logger.Debugf("bind %s listening...", listener.Addr())
	t.waitDone.Go(t.accept)
	return t, nil
}

func (t *TCPServer) Addr() string {
	return t.listener.Addr().String()
}

// 处理中的连接个数
func (t *TCPServer) Clients() int64 {
	return t.clientCounter.Load()
}

func (t *TCPServer) accept() {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("accept occurs temporary error: %v, retry in 5ms", err)
				time.Sleep(5 * time.Millisecond)
				continue
			}
			// listener 已关闭
			if !t.closeTcp.Load() {
				logger.Warn(err.Error())
			}
			return
		}
		if !t.track(conn) {
			conn.Close()
			continue
		}
		t.waitDone.Go(func() { t.handleConn(conn) })
	}
}

func (t *TCPServer) track(conn net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closeTcp.Load() {
		return false
	}
	t.conns[conn] = struct{}{}
	return true
}

func (t *TCPServer) handleConn(conn net.Conn) {
	logger.Debugf("accept new conn %s", conn.RemoteAddr())
	t.clientCounter.Add(1)
	defer func() {
		t.clientCounter.Add(-1)
		t.mu.Lock()
		delete(t.conns, conn)
		t.mu.Unlock()
		conn.Close()
	}()
	t.handler(t.ctx, conn)
}

// 关闭监听 & 所有连接，等待处理协程退出
func (t *TCPServer) Close() error {
	t.mu.Lock()
	if !t.closeTcp.CompareAndSwap(false, true) {
		t.mu.Unlock()
		return nil
	}
	conns := make([]net.Conn, 0, len(t.conns))
	for conn := range t.conns {
		conns = append(conns, conn)
	}
	t.mu.Unlock()

	t.cancel()
	err := t.listener.Close()
	for _, conn := range conns {
		conn.Close()
	}
	if t.waitDone.WaitWithTimeout(t.conf.CloseTimeout) {
		return errors.Errorf("close %s: handlers still running after %s", t.Addr(), t.conf.CloseTimeout)
	}
	return err
}
