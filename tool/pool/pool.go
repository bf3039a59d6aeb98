package pool

import (
	"context"
	"errors"
	"sync"

	"github.com/gofish2020/easyclient/tool/logger"
)

/*
对象池：
1.最多只能缓存 MaxIdles 个空闲对象
2.获取对象的时候，如果没有空闲对象，就创建新对象，对象池中最多只能创建 MaxActive 个对象
3.超过 MaxActive 时阻塞等待，直到有对象归还 or ctx 结束
*/

var (
	ErrClosed = errors.New("pool closed")
)

type Config struct {
	MaxIdles  int
	MaxActive int
}

// 对象池当前状态
type Stats struct {
	Active  int // 已经创建且未释放的对象个数
	Idle    int // 空闲对象个数
	Waiting int // 阻塞等待的调用方个数
}

type Pool[T any] struct {
	Config

	// 创建对象
	newObject func() (T, error)
	// 释放对象
	freeObject func(x T)

	// 空闲对象池
	idles chan T

	mu          sync.Mutex
	activeCount int      // 已经创建的对象个数
	waiting     []chan T // 阻塞等待

	closed bool // 是否已关闭
}

func NewPool[T any](new func() (T, error), free func(x T), conf Config) *Pool[T] {

	if new == nil {
		logger.Error("NewPool argument new func is nil")
		return nil
	}

	if free == nil {
		free = func(x T) {}
	}
	if conf.MaxActive <= 0 {
		conf.MaxActive = 1
	}
	if conf.MaxIdles < 0 {
		conf.MaxIdles = 0
	}

	p := Pool[T]{
		Config:     conf,
		newObject:  new,
		freeObject: free,
	}
	p.idles = make(chan T, p.MaxIdles)
	return &p
}

// 归还对象
func (p *Pool[T]) Put(x T) {
	p.mu.Lock()
	if p.closed {
		p.activeCount--
		p.mu.Unlock()
		p.freeObject(x) // 直接释放
		return
	}

	//1.先判断等待中
	if len(p.waiting) > 0 {
		// 弹出一个（从头部）
		wait := p.waiting[0]
		p.waiting = p.waiting[1:]
		wait <- x // 取消阻塞(wait 有1个缓冲，不会阻塞)
		p.mu.Unlock()
		return
	}
	// 2.直接放回空闲缓冲
	select {
	case p.idles <- x:
		p.mu.Unlock()
	default: // 说明空闲已满
		p.activeCount--
		p.mu.Unlock()
		p.freeObject(x)
	}
}

// 丢弃一个已借出的对象（例如连接已损坏），释放名额给等待者
func (p *Pool[T]) Discard(x T) {
	p.mu.Lock()
	p.activeCount--
	p.wakeOne()
	p.mu.Unlock()
	p.freeObject(x)
}

// 有名额空出来：唤醒一个等待者，让它自己创建对象（调用方持有锁）
func (p *Pool[T]) wakeOne() {
	if len(p.waiting) == 0 || p.closed {
		return
	}
	wait := p.waiting[0]
	p.waiting = p.waiting[1:]
	close(wait) // 关闭表示：没有现成的对象，但可以新建
}

// 借出对象
func (p *Pool[T]) Get(ctx context.Context) (T, error) {
	var zero T
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return zero, ErrClosed
	}
	select {
	case x := <-p.idles: // 从空闲中获取
		p.mu.Unlock()
		return x, nil
	default:
		return p.getOne(ctx) // 获取一个新的
	}
}

// 调用方持有锁
func (p *Pool[T]) getOne(ctx context.Context) (T, error) {
	var zero T
	// 说明已经创建了太多对象
	if p.activeCount >= p.MaxActive {
		wait := make(chan T, 1)
		p.waiting = append(p.waiting, wait)
		p.mu.Unlock()

		select {
		case x, ok := <-wait:
			if ok {
				return x, nil
			}
			// 被 Discard 唤醒 or 对象池关闭
			p.mu.Lock()
			if p.closed {
				p.mu.Unlock()
				return zero, ErrClosed
			}
			return p.getOne(ctx)
		case <-ctx.Done():
			p.mu.Lock()
			if p.removeWaiter(wait) {
				p.mu.Unlock()
				return zero, ctx.Err()
			}
			p.mu.Unlock()
			// 已经被选中：对象 or 名额 已经交给我们，需要归还
			if x, ok := <-wait; ok {
				p.Put(x)
			} else {
				p.mu.Lock()
				p.wakeOne()
				p.mu.Unlock()
			}
			return zero, ctx.Err()
		}
	}

	p.activeCount++
	p.mu.Unlock()
	// 创建新对象
	x, err := p.newObject()
	if err != nil {
		p.mu.Lock()
		p.activeCount--
		p.wakeOne()
		p.mu.Unlock()
		return zero, err
	}
	return x, nil
}

func (p *Pool[T]) removeWaiter(wait chan T) bool {
	for i, w := range p.waiting {
		if w == wait {
			p.waiting = append(p.waiting[:i], p.waiting[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Active:  p.activeCount,
		Idle:    len(p.idles),
		Waiting: len(p.waiting),
	}
}

// 关闭对象池：释放空闲对象，已借出的对象在归还时释放
func (p *Pool[T]) Close() {

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.idles)
	for _, wait := range p.waiting {
		close(wait) // 关闭等待的通道
	}
	p.waiting = nil
	var idles []T
	for x := range p.idles {
		p.activeCount--
		idles = append(idles, x)
	}
	p.mu.Unlock()

	// 释放空闲对象
	for _, x := range idles {
		p.freeObject(x)
	}
}
