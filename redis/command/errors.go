package command

import (
	"strings"

	"github.com/pkg/errors"
)

// 命令生命周期错误
var (
	// 等待超时：命令之后仍可能完成
	ErrTimeout = errors.New("command timed out")
	// 等待方被外部中断(ctx结束)：命令仍处于Pending
	ErrInterrupted = errors.New("command interrupted")
	// 命令被取消
	ErrCancelled = errors.New("command cancelled")
	// 连接断开时命令仍在等待回复
	ErrConnectionClosed = errors.New("connection closed")
	// 连接池连接上禁止执行的命令
	ErrUnsupported = errors.New("operation not supported on pooled connection")
	// 已归还到连接池的连接
	ErrDeallocated = errors.New("connection has been deallocated")
	// 事务被放弃(DISCARD)
	ErrDiscarded = errors.New("transaction discarded")

	// 重复完成（内部错误，只记录日志）
	ErrAlreadyCompleted = errors.New("command already completed")
	// 结果对象被非法使用
	ErrIllegalState = errors.New("illegal state")
	// 连接暂时不可用（断线重连中）
	ErrNotConnected = errors.New("connection not active")
	// 没有等待中的命令却收到了回复
	ErrUnsolicitedReply = errors.New("unsolicited reply")
)

// 服务端返回的错误（作为值保存）  例如：ERR unknown command
type RedisError string

func (e RedisError) Error() string {
	return string(e)
}

// 错误前缀，例如 ERR / WRONGTYPE / EXECABORT
func (e RedisError) Prefix() string {
	if idx := strings.IndexByte(string(e), ' '); idx > 0 {
		return string(e[:idx])
	}
	return string(e)
}

// 回复无法解码成目标类型
type DecodeError struct {
	Target string // 目标类型
	Reply  string // 原始回复
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "cannot decode " + e.Reply + " into " + e.Target
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
