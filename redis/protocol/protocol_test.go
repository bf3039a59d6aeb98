package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/bytebufferpool"
)

func TestWriteCommand(t *testing.T) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	WriteCommand(buf, [][]byte{[]byte("SET"), []byte("key"), {}})
	WriteCommand(buf, [][]byte{[]byte("PING")})

	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$0\r\n\r\n*1\r\n$4\r\nPING\r\n", buf.String())
}

func TestStatus(t *testing.T) {
	assert.True(t, IsOKReply(NewOkReply()))
	assert.True(t, IsOKReply(NewSimpleReply("OK")))
	assert.False(t, IsOKReply(NewBulkReply([]byte("OK"))))
	assert.True(t, IsQueuedReply(NewSimpleReply("QUEUED")))
	assert.False(t, IsQueuedReply(NewOkReply()))
}

func TestErrReply(t *testing.T) {
	reply := NewSimpleErrReply("WRONGTYPE Operation against a key holding the wrong kind of value")
	assert.True(t, IsErrReply(reply))
	assert.Equal(t, "WRONGTYPE", reply.Prefix())
	assert.Equal(t, "-ERR unknown\r\n", string(NewSimpleErrReply("ERR unknown").ToBytes()))
	assert.False(t, IsErrReply(NewIntegerReply(1)))
}

func TestMultiRawReply(t *testing.T) {
	reply := NewMultiRawReply(NewOkReply(), NewIntegerReply(2))
	reply.Append(NewMultiRawReply(NewBulkReply([]byte("a")), NewNullBulkReply()))
	assert.Equal(t, "*3\r\n+OK\r\n:2\r\n*2\r\n$1\r\na\r\n$-1\r\n", string(reply.ToBytes()))
	assert.Equal(t, "*-1\r\n", string(NewNullMultiBulkReply().ToBytes()))
	assert.Equal(t, "*0\r\n", string(NewEmptyMultiBulkReply().ToBytes()))
}
