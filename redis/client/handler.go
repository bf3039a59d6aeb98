package client

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/gofish2020/easyclient/tool/logger"
)

// 资源登记表（客户端用来跟踪所有打开的连接/连接池）
type Registry interface {
	Register(closer io.Closer)
	Unregister(closer io.Closer)
}

/*
ChannelHandler 连接生命周期：
创建(未激活) -> 激活 <-> 断开(可多次，断线重连) -> 关闭(终态)
*/
type ChannelHandler struct {
	mu     sync.Mutex
	active atomic.Bool
	closed atomic.Bool

	// 拥有者（用于避免关闭回调中重复关闭自身）
	self io.Closer
	// 关闭时执行（关闭socket等）
	closeHook func()

	events *CloseEvents
}

func NewChannelHandler(self io.Closer, closeHook func()) *ChannelHandler {
	return &ChannelHandler{
		self:      self,
		closeHook: closeHook,
		events:    NewCloseEvents(),
	}
}

func (h *ChannelHandler) Activated() {
	if h.closed.Load() {
		return
	}
	h.active.Store(true)
}

func (h *ChannelHandler) Deactivated() {
	h.active.Store(false)
}

func (h *ChannelHandler) IsOpen() bool {
	return h.active.Load() && !h.closed.Load()
}

func (h *ChannelHandler) IsClosed() bool {
	return h.closed.Load()
}

// 关闭连接（重复关闭只记录日志）
func (h *ChannelHandler) Close() error {
	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		logger.Warn("connection is already closed")
		return nil
	}
	h.active.Store(false)
	h.closed.Store(true)
	h.mu.Unlock()

	if h.closeHook != nil {
		h.closeHook()
	}
	h.events.Fire()
	return nil
}

func (h *ChannelHandler) AddListener(key any, listener CloseListener) error {
	return h.events.AddListener(key, listener)
}

func (h *ChannelHandler) RemoveListener(key any) {
	h.events.RemoveListener(key)
}

type registration struct {
	registry   Registry
	closeables []io.Closer
}

// 登记依赖资源：连接关闭时，一并关闭这些资源（自身除外），并从 registry 中删除
func (h *ChannelHandler) RegisterCloseables(registry Registry, closeables ...io.Closer) error {
	for _, c := range closeables {
		registry.Register(c)
	}

	key := &registration{registry: registry, closeables: closeables}
	return h.events.AddListener(key, func() {
		for _, c := range closeables {
			if c == h.self {
				continue
			}
			if err := c.Close(); err != nil {
				logger.Debug("close resource: ", err)
			}
		}
		for _, c := range closeables {
			registry.Unregister(c)
		}
	})
}
