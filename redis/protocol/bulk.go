package protocol

import (
	"bytes"
	"strconv"

	"github.com/gofish2020/easyclient/utils"
)

// 空数组 *0\r\n
var emptyMultiBulkReply = &EmptyMultiBulkReply{}

type EmptyMultiBulkReply struct {
}

func (e *EmptyMultiBulkReply) ToBytes() []byte {
	return []byte("*0" + utils.CRLF)
}

func NewEmptyMultiBulkReply() *EmptyMultiBulkReply {
	return emptyMultiBulkReply
}

// 空值数组 *-1\r\n (例如：watch的key发生变化，exec返回)
var nullMultiBulkReply = &NullMultiBulkReply{}

type NullMultiBulkReply struct{}

func (n *NullMultiBulkReply) ToBytes() []byte {
	return []byte("*-1" + utils.CRLF)
}

func NewNullMultiBulkReply() *NullMultiBulkReply {
	return nullMultiBulkReply
}

// 二进制安全 单个bulk $3\r\nkey\r\n
type BulkReply struct {
	Arg []byte
}

func NewBulkReply(arg []byte) *BulkReply {
	return &BulkReply{
		Arg: arg,
	}
}

func (b *BulkReply) ToBytes() []byte {
	if b.Arg == nil {
		return NewNullBulkReply().ToBytes()
	}
	return []byte("$" + strconv.Itoa(len(b.Arg)) + utils.CRLF + string(b.Arg) + utils.CRLF)
}

// null bulk   $-1\r\n
var nullBulkReply = &NullBulkReply{}

type NullBulkReply struct{}

func (n *NullBulkReply) ToBytes() []byte {
	return []byte("$-1" + utils.CRLF)
}

func NewNullBulkReply() *NullBulkReply {
	return nullBulkReply
}

// Integer   :3\r\n
type IntegerReply struct {
	Integer int64
}

func (i *IntegerReply) ToBytes() []byte {
	return []byte(":" + strconv.FormatInt(i.Integer, 10) + utils.CRLF)
}

func NewIntegerReply(integer int64) *IntegerReply {
	return &IntegerReply{Integer: integer}
}

// 任意类型元素的数组，元素本身也可以是数组（exec的返回）
type MultiRawReply struct {
	Replies []Reply
}

func NewMultiRawReply(replies ...Reply) *MultiRawReply {
	return &MultiRawReply{Replies: replies}
}

func (m *MultiRawReply) ToBytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("*" + strconv.Itoa(len(m.Replies)) + utils.CRLF)
	for _, reply := range m.Replies {
		buf.Write(reply.ToBytes())
	}
	return buf.Bytes()
}

func (m *MultiRawReply) Append(replies ...Reply) {
	m.Replies = append(m.Replies, replies...)
}
