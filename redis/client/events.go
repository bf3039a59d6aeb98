package client

import (
	"sync"

	"github.com/gofish2020/easyclient/redis/command"
	"github.com/pkg/errors"
)

const (
	eventsOpen int = iota
	eventsClosing
	eventsClosed
)

// 连接关闭时回调
type CloseListener func()

/*
CloseEvents 关闭事件注册表：
Open 状态可以注册/删除；Fire 之后进入 Closing -> Closed，监听只会被回调一次
*/
type CloseEvents struct {
	mu        sync.Mutex
	state     int
	listeners map[any]CloseListener
}

func NewCloseEvents() *CloseEvents {
	return &CloseEvents{
		listeners: make(map[any]CloseListener),
	}
}

// key 用于标识依赖的资源
func (e *CloseEvents) AddListener(key any, listener CloseListener) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != eventsOpen {
		return errors.Wrap(command.ErrConnectionClosed, "add close listener")
	}
	e.listeners[key] = listener
	return nil
}

func (e *CloseEvents) RemoveListener(key any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == eventsOpen {
		delete(e.listeners, key)
	}
}

func (e *CloseEvents) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// 回调所有监听（只执行一次）
func (e *CloseEvents) Fire() bool {
	e.mu.Lock()
	if e.state != eventsOpen {
		e.mu.Unlock()
		return false
	}
	e.state = eventsClosing
	listeners := e.listeners
	e.listeners = nil
	e.mu.Unlock()

	// 回调过程中不持有锁（回调可能关闭其他资源）
	for _, listener := range listeners {
		listener()
	}

	e.mu.Lock()
	e.state = eventsClosed
	e.mu.Unlock()
	return true
}
