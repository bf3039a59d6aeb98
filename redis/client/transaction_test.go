package client

import (
	"testing"

	"github.com/gofish2020/easyclient/redis/command"
	"github.com/gofish2020/easyclient/redis/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction() (*transaction, *ChannelWriter, *fakeTransport) {
	w, transport := newTestWriter()
	return newTransaction(w), w, transport
}

func newMulti() *command.Command[string] {
	return command.New[string](command.MULTI, command.NewStatusOutput(), nil)
}

func newExec() *command.Command[[]any] {
	return command.New[[]any](command.EXEC, command.NewNestedMultiOutput(), nil)
}

func newSet(key, value string) *command.Command[string] {
	return command.New[string](command.SET, command.NewStatusOutput(), command.NewArgs().Add(key, value))
}

func newIncr(key string) *command.Command[int64] {
	return command.New[int64](command.INCR, command.NewIntegerOutput(), command.NewArgs().Add(key))
}

func queued() protocol.Reply {
	return protocol.NewSimpleReply("QUEUED")
}

func begin(t *testing.T, tx *transaction, w *ChannelWriter) {
	multi := newMulti()
	require.NoError(t, tx.dispatch(multi))
	require.NoError(t, w.OnReply(protocol.NewOkReply()))
	value, err := multi.Get()
	require.NoError(t, err)
	assert.Equal(t, "OK", value)
	assert.True(t, tx.isActive())
}

func TestTransactionExec(t *testing.T) {
	tx, w, transport := newTestTransaction()
	begin(t, tx, w)

	cmd1 := newSet("a", "b")
	cmd2 := newIncr("a")
	require.NoError(t, tx.dispatch(cmd1))
	require.NoError(t, tx.dispatch(cmd2))

	// 事务中的命令不单独发送
	assert.Equal(t, [][]string{{"MULTI"}}, transport.lines(t))
	assert.False(t, cmd1.IsDone())
	assert.Equal(t, 0, w.Inflight())

	exec := newExec()
	require.NoError(t, tx.dispatch(exec))
	assert.False(t, tx.isActive())
	assert.Equal(t, [][]string{{"MULTI"}, {"SET", "a", "b"}, {"INCR", "a"}, {"EXEC"}}, transport.lines(t))
	assert.Equal(t, 3, w.Inflight())

	require.NoError(t, w.OnReply(queued()))
	require.NoError(t, w.OnReply(queued()))
	require.NoError(t, w.OnReply(protocol.NewMultiRawReply(
		protocol.NewOkReply(),
		protocol.NewSimpleErrReply("ERR x"),
	)))

	value, err := cmd1.Get()
	require.NoError(t, err)
	assert.Equal(t, "OK", value)

	// 服务端错误作为值，不是 Get 的错误
	n, err := cmd2.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, command.RedisError("ERR x"), cmd2.Error())

	results, err := exec.Get()
	require.NoError(t, err)
	assert.Equal(t, []any{"OK", command.RedisError("ERR x")}, results)
	assert.Equal(t, 0, w.Inflight())
}

func TestTransactionAborted(t *testing.T) {
	tx, w, _ := newTestTransaction()
	begin(t, tx, w)

	cmd1 := newSet("a", "b")
	require.NoError(t, tx.dispatch(cmd1))
	exec := newExec()
	require.NoError(t, tx.dispatch(exec))

	require.NoError(t, w.OnReply(queued()))
	require.NoError(t, w.OnReply(protocol.NewNullMultiBulkReply()))

	value, err := cmd1.Get()
	require.NoError(t, err)
	assert.Equal(t, "", value)
	assert.NoError(t, cmd1.Error())

	results, err := exec.Get()
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.True(t, exec.Output().(*command.NestedMultiOutput).Aborted())
	assert.False(t, tx.isActive())
}

func TestTransactionDiscard(t *testing.T) {
	tx, w, transport := newTestTransaction()
	begin(t, tx, w)

	cmd1 := newSet("a", "b")
	require.NoError(t, tx.dispatch(cmd1))

	discard := command.New[string](command.DISCARD, command.NewStatusOutput(), nil)
	require.NoError(t, tx.dispatch(discard))
	assert.False(t, tx.isActive())

	_, err := cmd1.Get()
	assert.ErrorIs(t, err, command.ErrDiscarded)

	require.NoError(t, w.OnReply(protocol.NewOkReply()))
	value, err := discard.Get()
	require.NoError(t, err)
	assert.Equal(t, "OK", value)
	assert.Equal(t, [][]string{{"MULTI"}, {"DISCARD"}}, transport.lines(t))
}

func TestExecWithoutMulti(t *testing.T) {
	tx, w, transport := newTestTransaction()

	exec := newExec()
	require.NoError(t, tx.dispatch(exec))
	require.NoError(t, w.OnReply(protocol.NewSimpleErrReply("ERR EXEC without MULTI")))
	_, err := exec.Get()
	require.NoError(t, err)
	assert.EqualError(t, exec.Error(), "ERR EXEC without MULTI")

	discard := command.New[string](command.DISCARD, command.NewStatusOutput(), nil)
	require.NoError(t, tx.dispatch(discard))
	require.NoError(t, w.OnReply(protocol.NewSimpleErrReply("ERR DISCARD without MULTI")))
	discard.Get()
	assert.EqualError(t, discard.Error(), "ERR DISCARD without MULTI")

	assert.Equal(t, [][]string{{"EXEC"}, {"DISCARD"}}, transport.lines(t))
}

func TestNestedMultiForwarded(t *testing.T) {
	tx, w, transport := newTestTransaction()
	begin(t, tx, w)

	multi := newMulti()
	require.NoError(t, tx.dispatch(multi))
	require.NoError(t, w.OnReply(protocol.NewSimpleErrReply("ERR MULTI calls can not be nested")))
	multi.Get()
	assert.ErrorContains(t, multi.Error(), "nested")
	assert.True(t, tx.isActive())
	assert.Equal(t, [][]string{{"MULTI"}, {"MULTI"}}, transport.lines(t))
}

func TestTransactionQueueError(t *testing.T) {
	tx, w, _ := newTestTransaction()
	begin(t, tx, w)

	cmd1 := newSet("a", "b")
	cmd2 := command.New[string](command.CommandType("UNKNOWN"), command.NewStatusOutput(), nil)
	require.NoError(t, tx.dispatch(cmd1))
	require.NoError(t, tx.dispatch(cmd2))
	exec := newExec()
	require.NoError(t, tx.dispatch(exec))

	require.NoError(t, w.OnReply(queued()))
	require.NoError(t, w.OnReply(protocol.NewSimpleErrReply("ERR unknown command 'UNKNOWN'")))
	require.NoError(t, w.OnReply(protocol.NewSimpleErrReply("EXECABORT Transaction discarded because of previous errors.")))

	cmd1.Get()
	cmd2.Get()
	assert.Equal(t, "EXECABORT", cmd1.Error().(command.RedisError).Prefix())
	assert.Equal(t, "ERR", cmd2.Error().(command.RedisError).Prefix())

	_, err := exec.Get()
	require.NoError(t, err)
	assert.Equal(t, "EXECABORT", exec.Error().(command.RedisError).Prefix())
}

func TestTransactionNotQueued(t *testing.T) {
	tx, w, _ := newTestTransaction()
	begin(t, tx, w)

	cmd1 := newSet("a", "b")
	require.NoError(t, tx.dispatch(cmd1))
	exec := newExec()
	require.NoError(t, tx.dispatch(exec))

	// 服务端没有入队，直接执行了命令
	require.NoError(t, w.OnReply(protocol.NewOkReply()))
	require.NoError(t, w.OnReply(protocol.NewSimpleErrReply("ERR EXEC without MULTI")))

	value, err := cmd1.Get()
	require.NoError(t, err)
	assert.Equal(t, "OK", value)
	assert.NoError(t, cmd1.Error())

	exec.Get()
	assert.EqualError(t, exec.Error(), "ERR EXEC without MULTI")
}

func TestTransactionExecCancelled(t *testing.T) {
	tx, w, _ := newTestTransaction()
	begin(t, tx, w)

	cmd1 := newIncr("a")
	require.NoError(t, tx.dispatch(cmd1))
	exec := newExec()
	require.NoError(t, tx.dispatch(exec))
	exec.Cancel(true)

	require.NoError(t, w.OnReply(queued()))
	require.NoError(t, w.OnReply(protocol.NewMultiRawReply(protocol.NewIntegerReply(1))))

	value, err := cmd1.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)
	_, err = exec.Get()
	assert.ErrorIs(t, err, command.ErrCancelled)
}

func TestTransactionConnectionLost(t *testing.T) {
	tx, w, _ := newTestTransaction()
	begin(t, tx, w)

	cmd1 := newSet("a", "b")
	require.NoError(t, tx.dispatch(cmd1))
	tx.reset(command.ErrConnectionClosed)

	_, err := cmd1.Get()
	assert.ErrorIs(t, err, command.ErrConnectionClosed)
	assert.False(t, tx.isActive())
}

func TestTransactionConnectionLostAfterFlush(t *testing.T) {
	tx, w, _ := newTestTransaction()
	begin(t, tx, w)

	cmd1 := newSet("a", "b")
	require.NoError(t, tx.dispatch(cmd1))
	exec := newExec()
	require.NoError(t, tx.dispatch(exec))
	require.NoError(t, w.OnReply(queued()))

	w.OnConnectionClosed()
	_, err := cmd1.Get()
	assert.ErrorIs(t, err, command.ErrConnectionClosed)
	_, err = exec.Get()
	assert.ErrorIs(t, err, command.ErrConnectionClosed)
}
