package command

import (
	"testing"

	"github.com/gofish2020/easyclient/redis/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputWithoutDecoder(t *testing.T) {
	output := NewOutput[string](nil)
	assert.ErrorIs(t, output.Set(nil), ErrIllegalState)
	assert.ErrorIs(t, output.Set(protocol.NewIntegerReply(0)), ErrIllegalState)
}

func TestOutputSetTwice(t *testing.T) {
	output := NewStatusOutput()
	require.NoError(t, output.Set(protocol.NewOkReply()))
	assert.ErrorIs(t, output.Set(protocol.NewOkReply()), ErrIllegalState)

	value, err := output.Get()
	require.NoError(t, err)
	assert.Equal(t, "OK", value)
}

func TestDecoders(t *testing.T) {
	value, err := decodeValue(protocol.NewNullBulkReply())
	require.NoError(t, err)
	assert.Equal(t, "", value)

	n, err := decodeInteger(protocol.NewIntegerReply(-2))
	require.NoError(t, err)
	assert.Equal(t, int64(-2), n)

	ok, err := decodeBoolean(protocol.NewIntegerReply(1))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = decodeBoolean(protocol.NewIntegerReply(0))
	require.NoError(t, err)
	assert.False(t, ok)

	f, err := decodeDouble(protocol.NewBulkReply([]byte("1.5")))
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)
	_, err = decodeDouble(protocol.NewBulkReply([]byte("x")))
	assert.Error(t, err)

	list, err := decodeValueList(protocol.NewMultiRawReply(
		protocol.NewBulkReply([]byte("a")),
		protocol.NewNullBulkReply(),
		protocol.NewBulkReply([]byte("c")),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "c"}, list)

	list, err = decodeValueList(protocol.NewEmptyMultiBulkReply())
	require.NoError(t, err)
	assert.Empty(t, list)

	m, err := decodeMap(protocol.NewMultiRawReply(
		protocol.NewBulkReply([]byte("f1")), protocol.NewBulkReply([]byte("v1")),
		protocol.NewBulkReply([]byte("f2")), protocol.NewBulkReply([]byte("v2")),
	))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1", "f2": "v2"}, m)

	_, err = decodeMap(protocol.NewMultiRawReply(protocol.NewBulkReply([]byte("f1"))))
	assert.Error(t, err)
}

func TestRawOutput(t *testing.T) {
	output := NewRawOutput()
	require.NoError(t, output.Set(protocol.NewMultiRawReply(
		protocol.NewOkReply(),
		protocol.NewIntegerReply(3),
		protocol.NewMultiRawReply(protocol.NewBulkReply([]byte("1")), protocol.NewNullBulkReply()),
		protocol.NewSimpleErrReply("ERR x"),
	)))
	value, err := output.Get()
	require.NoError(t, err)
	assert.Equal(t, []any{"OK", int64(3), []any{"1", nil}, RedisError("ERR x")}, value)
}

func TestNestedMultiError(t *testing.T) {
	output := NewNestedMultiOutput()
	output.SetError("Oops!")
	values, err := output.Get()
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.IsType(t, RedisError(""), values[0])
	assert.EqualError(t, output.Error(), "Oops!")
}

func TestNestedMultiAppend(t *testing.T) {
	output := NewNestedMultiOutput()
	require.NoError(t, output.Set(protocol.NewOkReply()))
	require.NoError(t, output.Set(protocol.NewBulkReply([]byte("v"))))
	output.SetError("ERR x")
	values, _ := output.Get()
	assert.Equal(t, []any{"OK", "v", RedisError("ERR x")}, values)

	aborted := NewNestedMultiOutput()
	require.NoError(t, aborted.Set(protocol.NewNullMultiBulkReply()))
	assert.True(t, aborted.Aborted())
	values, _ = aborted.Get()
	assert.Empty(t, values)
}

func TestArgs(t *testing.T) {
	args := NewArgs().Add("a").AddFloat(1.25).AddInt(-1).AddBytes([]byte("b"))
	assert.Equal(t, 4, args.Count())
	assert.Equal(t, "a 1.25 -1 b", args.String())

	var none *CommandArgs
	assert.Equal(t, 0, none.Count())
	assert.Equal(t, [][]byte{[]byte("PING")}, none.Line(PING))
}

func TestCommandType(t *testing.T) {
	assert.Equal(t, "APPEND", APPEND.String())
	assert.Equal(t, CommandType("EXEC"), EXEC)
}
