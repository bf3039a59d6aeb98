package client

import (
	"sync"

	"github.com/gofish2020/easyclient/datastruct/list"
	"github.com/gofish2020/easyclient/redis/command"
	"github.com/gofish2020/easyclient/redis/protocol"
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
)

// 底层传输：发送编码后的字节
type Transport interface {
	Send(data []byte) error
	Close() error
}

/*
ChannelWriter 命令发送队列：
1.写入顺序 == inflight顺序（写锁内完成 编码+入队+发送）
2.每收到一个回复，弹出队头的命令并完成它（不按id匹配，协议保证回复顺序）
*/
type ChannelWriter struct {
	writeMu   sync.Mutex
	transport Transport
	closed    bool

	queueMu  sync.Mutex
	inflight *list.LinkedList[command.RedisCommand]
}

func NewChannelWriter() *ChannelWriter {
	return &ChannelWriter{
		inflight: list.NewLinkedList[command.RedisCommand](),
	}
}

// 连接建立/断开时切换（nil 表示当前没有可用的连接）
func (w *ChannelWriter) SetTransport(t Transport) {
	w.writeMu.Lock()
	w.transport = t
	w.writeMu.Unlock()
}

// 写入单个命令
func (w *ChannelWriter) Write(cmd command.RedisCommand) (command.RedisCommand, error) {
	return cmd, w.WriteBatch(cmd)
}

// 原子写入多个命令（中间不会插入其他命令）
func (w *ChannelWriter) WriteBatch(cmds ...command.RedisCommand) error {
	if len(cmds) == 0 {
		return nil
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.writeLocked(cmds)
}

// 切换到新连接，并先于其他命令写入初始化命令（AUTH/SELECT等）
func (w *ChannelWriter) ResetTransport(t Transport, init ...command.RedisCommand) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if w.closed {
		return command.ErrConnectionClosed
	}
	w.transport = t
	if len(init) == 0 {
		return nil
	}
	return w.writeLocked(init)
}

// 调用方持有写锁
func (w *ChannelWriter) writeLocked(cmds []command.RedisCommand) error {
	if w.closed {
		return command.ErrConnectionClosed
	}
	if w.transport == nil {
		return command.ErrNotConnected
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for _, cmd := range cmds {
		protocol.WriteCommand(buf, cmd.Line())
	}

	// 先入队再发送：回复可能在 Send 返回前到达
	w.queueMu.Lock()
	for _, cmd := range cmds {
		w.inflight.Add(cmd)
	}
	w.queueMu.Unlock()
	inflightTotal.Add(int64(len(cmds)))

	if err := w.transport.Send(buf.Bytes()); err != nil {
		writeErrors.Inc()
		err = errors.Wrap(err, "write command")
		for _, cmd := range cmds {
			cmd.CompleteExceptionally(err)
		}
		// 关闭连接，由读协程走断线流程（清理 inflight）
		w.transport.Close()
		return err
	}
	commandsWritten.Add(len(cmds))
	return nil
}

// 收到一个完整的回复
func (w *ChannelWriter) OnReply(reply protocol.Reply) error {
	w.queueMu.Lock()
	cmd, ok := w.inflight.PopFirst()
	w.queueMu.Unlock()
	if !ok {
		unsolicited.Inc()
		return command.ErrUnsolicitedReply
	}
	inflightTotal.Add(-1)

	// 已取消 or 已失败：回复只消耗这个位置
	if cmd.IsDone() {
		repliesSkipped.Inc()
		return nil
	}
	cmd.SetReply(reply)
	cmd.Complete()
	repliesMatched.Inc()
	return nil
}

// 连接断开：所有等待中的命令失败
func (w *ChannelWriter) OnConnectionClosed() {
	w.queueMu.Lock()
	cmds := w.inflight.Drain()
	w.queueMu.Unlock()
	inflightTotal.Add(-int64(len(cmds)))

	for _, cmd := range cmds {
		if cmd.CompleteExceptionally(command.ErrConnectionClosed) {
			commandsFailed.Inc()
		}
	}
}

// 等待回复的命令个数
func (w *ChannelWriter) Inflight() int {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	return w.inflight.Len()
}

// 不再接收新命令
func (w *ChannelWriter) Close() error {
	w.writeMu.Lock()
	w.closed = true
	w.transport = nil
	w.writeMu.Unlock()

	w.OnConnectionClosed()
	return nil
}
