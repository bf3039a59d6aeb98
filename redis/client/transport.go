package client

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofish2020/easyclient/redis/command"
	"github.com/gofish2020/easyclient/redis/parser"
	"github.com/gofish2020/easyclient/tool/logger"
	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
)

// tcp连接
type socket struct {
	conn net.Conn
}

func (s *socket) Send(data []byte) error {
	_, err := s.conn.Write(data)
	return err
}

func (s *socket) Close() error {
	return s.conn.Close()
}

// 一次socket连接
type attachment struct {
	nc      net.Conn
	current bool // 握手成功，正在使用
	dead    bool // 读协程已退出

	closing atomic.Bool // 本端主动关闭
}

func (a *attachment) shutdown() {
	a.closing.Store(true)
	a.nc.Close()
}

/*
endpoint 负责socket：
1.连接 + 握手(AUTH/SELECT/CLIENT SETNAME) 之后激活连接
2.读协程解析回复，交给 ChannelWriter 匹配
3.连接断开：在途命令失败；开启自动重连时按 backoff 重试，重试失败则关闭连接
*/
type endpoint struct {
	owner  *RedisConnection
	writer *ChannelWriter

	ctx    context.Context // 关闭时取消
	cancel context.CancelFunc

	mu      sync.Mutex
	current *attachment
	closed  bool

	// QUIT 之后不再重连
	noReconnect atomic.Bool
}

func newEndpoint(owner *RedisConnection, writer *ChannelWriter) *endpoint {
	ctx, cancel := context.WithCancel(context.Background())
	return &endpoint{
		owner:  owner,
		writer: writer,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (e *endpoint) connect(ctx context.Context) error {
	opts := e.owner.Options()

	dialer := net.Dialer{Timeout: opts.DialTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", opts.Addr)
	if err != nil {
		return errors.Wrapf(err, "dial %s", opts.Addr)
	}
	att := &attachment{nc: nc}
	go e.readLoop(att)

	// 握手命令先于其他命令写入
	handshake := handshakeCommands(opts)
	init := make([]command.RedisCommand, 0, len(handshake))
	for _, cmd := range handshake {
		init = append(init, cmd)
	}
	if err := e.writer.ResetTransport(&socket{conn: nc}, init...); err != nil {
		e.abort(att)
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.connectTimeout())
	defer cancel()
	for _, cmd := range handshake {
		if _, err := cmd.GetContext(waitCtx); err != nil {
			e.abort(att)
			return errors.Wrapf(err, "handshake %s", cmd.Type())
		}
		if err := cmd.Error(); err != nil {
			e.abort(att)
			return errors.Wrapf(err, "handshake %s", cmd.Type())
		}
	}

	e.mu.Lock()
	if e.closed || att.dead {
		e.mu.Unlock()
		e.abort(att)
		return command.ErrConnectionClosed
	}
	att.current = true
	e.current = att
	e.mu.Unlock()

	e.owner.handler.Activated()
	logger.Infof("connected to %s", opts.Addr)
	return nil
}

func handshakeCommands(opts Options) []*command.Command[string] {
	var cmds []*command.Command[string]
	if opts.Password != "" {
		cmds = append(cmds, command.New[string](command.AUTH, command.NewStatusOutput(), command.NewArgs().Add(opts.Password)))
	}
	if opts.Database != 0 {
		cmds = append(cmds, command.New[string](command.SELECT, command.NewStatusOutput(), command.NewArgs().AddInt(int64(opts.Database))))
	}
	if opts.ClientName != "" {
		cmds = append(cmds, command.New[string](command.CLIENT, command.NewStatusOutput(), command.NewArgs().Add("SETNAME", opts.ClientName)))
	}
	return cmds
}

// 握手失败：放弃这次连接
func (e *endpoint) abort(att *attachment) {
	e.writer.SetTransport(nil)
	att.shutdown()
	e.writer.OnConnectionClosed()
}

func (e *endpoint) readLoop(att *attachment) {
	broken := false
	for payload := range parser.ParseStream(att.nc) {
		if payload.Err != nil {
			if !e.expectedReadError(att, payload.Err) {
				logger.Warnf("read from %s: %v", att.nc.RemoteAddr(), payload.Err)
			}
			continue // 出错后 chan 会被关闭
		}
		if broken {
			continue
		}
		if err := e.writer.OnReply(payload.Reply); err != nil {
			logger.Errorf("%v from %s, closing connection", err, att.nc.RemoteAddr())
			broken = true
			att.shutdown()
		}
	}
	e.onDisconnect(att)
}

// 对端正常关闭 or 本端主动关闭，不需要告警
func (e *endpoint) expectedReadError(att *attachment, err error) bool {
	return err == io.EOF || att.closing.Load() || e.isClosed()
}

func (e *endpoint) onDisconnect(att *attachment) {
	att.nc.Close()

	e.mu.Lock()
	att.dead = true
	current := att.current
	if current {
		e.current = nil
	}
	closed := e.closed
	e.mu.Unlock()

	if !current { // 握手阶段断开
		e.writer.OnConnectionClosed()
		return
	}

	e.owner.handler.Deactivated()
	e.writer.SetTransport(nil)
	e.writer.OnConnectionClosed()
	e.owner.tx.reset(command.ErrConnectionClosed)
	if closed {
		return
	}

	opts := e.owner.Options()
	if !opts.AutoReconnect || e.noReconnect.Load() {
		logger.Infof("connection to %s closed", opts.Addr)
		e.owner.Close()
		return
	}
	e.reconnect(opts)
}

func (e *endpoint) reconnect(opts Options) {
	b := &backoff.Backoff{
		Factor: 1.5,
		Jitter: true,
		Min:    100 * time.Millisecond,
		Max:    2 * time.Second,
	}

	for i := 0; i < opts.ReconnectAttempts; i++ {
		duration := b.Duration()
		logger.Infof("trying to reconnect to %s. sleeping for %s", opts.Addr, duration)

		timer := time.NewTimer(duration)
		select {
		case <-e.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		reconnects.Inc()
		ctx, cancel := context.WithTimeout(e.ctx, opts.connectTimeout())
		err := e.connect(ctx)
		cancel()
		if err == nil {
			return
		}
		logger.Warnf("reconnect to %s: %v", opts.Addr, err)
	}

	logger.Errorf("tried %d times reconnecting to %s. giving up", opts.ReconnectAttempts, opts.Addr)
	e.owner.Close()
}

func (e *endpoint) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *endpoint) close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	att := e.current
	e.mu.Unlock()

	e.cancel()
	if att != nil {
		att.shutdown()
	}
}
