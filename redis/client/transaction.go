package client

import (
	"sync"
	"sync/atomic"

	"github.com/gofish2020/easyclient/redis/command"
	"github.com/gofish2020/easyclient/redis/protocol"
)

/*
事务协调：
1.MULTI之后的命令不单独发送，保存在本地队列中，直接返回给调用方（Pending）
2.EXEC时将 队列中的命令 + EXEC 一次性写入，每个命令的 +QUEUED 占用一个inflight位置
3.EXEC的回复按顺序分发给队列中的命令
*/
type transaction struct {
	writer *ChannelWriter

	mu     sync.Mutex
	active bool
	queued []command.RedisCommand
}

func newTransaction(writer *ChannelWriter) *transaction {
	return &transaction{writer: writer}
}

// 命令分发：直接写入 or 进入事务队列
func (tx *transaction) dispatch(cmd command.RedisCommand) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	switch cmd.Type() {
	case command.MULTI:
		if tx.active { // 嵌套的MULTI原样转发，由服务端拒绝
			break
		}
		if _, err := tx.writer.Write(cmd); err != nil {
			return err
		}
		tx.active = true
		tx.queued = nil
		return nil
	case command.EXEC:
		if tx.active {
			return tx.flush(cmd)
		}
	case command.DISCARD:
		if tx.active {
			return tx.discard(cmd)
		}
	default:
		if tx.active {
			tx.queued = append(tx.queued, cmd)
			return nil
		}
	}
	_, err := tx.writer.Write(cmd)
	return err
}

func (tx *transaction) isActive() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.active
}

// 调用方持有锁
func (tx *transaction) flush(exec command.RedisCommand) error {
	queued := tx.queued
	tx.queued = nil
	tx.active = false

	acks := make([]*queuedAck, 0, len(queued))
	slots := make([]command.RedisCommand, 0, len(queued)+1)
	for _, cmd := range queued {
		ack := &queuedAck{cmd: cmd}
		acks = append(acks, ack)
		slots = append(slots, ack)
	}
	slots = append(slots, &execSlot{exec: exec, acks: acks})

	if err := tx.writer.WriteBatch(slots...); err != nil {
		for _, cmd := range queued {
			cmd.CompleteExceptionally(err)
		}
		return err
	}
	transactionsFlush.Inc()
	return nil
}

// 调用方持有锁
func (tx *transaction) discard(cmd command.RedisCommand) error {
	queued := tx.queued
	tx.queued = nil
	tx.active = false

	for _, q := range queued {
		q.CompleteExceptionally(command.ErrDiscarded)
	}
	transactionsDrop.Inc()
	_, err := tx.writer.Write(cmd)
	return err
}

// 连接断开 or 关闭：本地队列中的命令失败，回到 Idle
func (tx *transaction) reset(err error) {
	tx.mu.Lock()
	queued := tx.queued
	tx.queued = nil
	tx.active = false
	tx.mu.Unlock()

	for _, cmd := range queued {
		cmd.CompleteExceptionally(err)
	}
}

// 事务中命令的入队确认(+QUEUED)
type queuedAck struct {
	cmd  command.RedisCommand
	result protocol.Reply // 没有入队时的回复（入队错误等），作为命令结果
	done atomic.Bool
}

func (a *queuedAck) Type() command.CommandType { return a.cmd.Type() }
func (a *queuedAck) Line() [][]byte            { return a.cmd.Line() }

func (a *queuedAck) SetReply(reply protocol.Reply) {
	if !protocol.IsQueuedReply(reply) {
		a.result = reply
	}
}

func (a *queuedAck) Complete() error {
	if !a.done.CompareAndSwap(false, true) {
		return command.ErrAlreadyCompleted
	}
	return nil
}

func (a *queuedAck) CompleteExceptionally(err error) bool {
	if !a.done.CompareAndSwap(false, true) {
		return false
	}
	a.cmd.CompleteExceptionally(err)
	return true
}

func (a *queuedAck) Cancel(bool) bool  { return false }
func (a *queuedAck) IsDone() bool      { return a.done.Load() }
func (a *queuedAck) IsCancelled() bool { return false }

// EXEC 在inflight中的位置：把聚合回复分发给队列中的命令
type execSlot struct {
	exec command.RedisCommand
	acks []*queuedAck
	done atomic.Bool
}

func (s *execSlot) Type() command.CommandType { return s.exec.Type() }
func (s *execSlot) Line() [][]byte            { return s.exec.Line() }

func (s *execSlot) SetReply(reply protocol.Reply) {
	// 入队失败的命令，以入队错误作为结果
	remaining := make([]command.RedisCommand, 0, len(s.acks))
	for _, ack := range s.acks {
		if ack.result != nil {
			complete(ack.cmd, ack.result)
			continue
		}
		remaining = append(remaining, ack.cmd)
	}

	switch r := reply.(type) {
	case *protocol.NullMultiBulkReply, *protocol.EmptyMultiBulkReply: // 事务被放弃
		for _, cmd := range remaining {
			complete(cmd, nil)
		}
	case *protocol.MultiRawReply:
		for i, cmd := range remaining {
			if i < len(r.Replies) {
				complete(cmd, r.Replies[i])
			} else {
				complete(cmd, nil)
			}
		}
	default: // EXECABORT 等错误：所有命令以该错误作为结果
		for _, cmd := range remaining {
			complete(cmd, reply)
		}
	}

	s.exec.SetReply(reply)
}

func complete(cmd command.RedisCommand, reply protocol.Reply) {
	if cmd.IsDone() {
		return
	}
	if reply != nil {
		cmd.SetReply(reply)
	}
	cmd.Complete()
}

func (s *execSlot) Complete() error {
	if !s.done.CompareAndSwap(false, true) {
		return command.ErrAlreadyCompleted
	}
	if s.exec.IsDone() {
		return nil
	}
	return s.exec.Complete()
}

func (s *execSlot) CompleteExceptionally(err error) bool {
	if !s.done.CompareAndSwap(false, true) {
		return false
	}
	for _, ack := range s.acks {
		ack.cmd.CompleteExceptionally(err)
	}
	s.exec.CompleteExceptionally(err)
	return true
}

func (s *execSlot) Cancel(bool) bool  { return false }
func (s *execSlot) IsDone() bool      { return s.done.Load() }
func (s *execSlot) IsCancelled() bool { return false }
