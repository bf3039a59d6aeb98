package parser

import (
	"bufio"
	"bytes"
	"io"
	"runtime/debug"
	"strconv"

	"github.com/gofish2020/easyclient/redis/protocol"
	"github.com/gofish2020/easyclient/tool/logger"
	"github.com/pkg/errors"
)

// 协议错误：数据流无法再按帧切分
var ErrProtocol = errors.New("protocol error")

const (
	// 字符串最大长度 512MB
	maxBulkLen = 512 * 1024 * 1024
	// 数组预分配的上限，元素按实际读取追加
	maxArrayPrealloc = 1024
)

type Payload struct {
	Err   error
	Reply protocol.Reply
}

// 从reader读取数据&解析，并保存到chan中，供外部读取
// 每个完整的回复帧对应一个Payload；出错时发送一个带Err的Payload并关闭chan
func ParseStream(reader io.Reader) <-chan *Payload {
	dataStream := make(chan *Payload)
	go parse(reader, dataStream)
	return dataStream
}

// 解析一个完整的回复帧
func ParseOne(data []byte) (protocol.Reply, error) {
	return readReply(bufio.NewReader(bytes.NewReader(data)))
}

// 解析data中的所有回复帧
func ParseAll(data []byte) ([]protocol.Reply, error) {
	reader := bufio.NewReader(bytes.NewReader(data))
	var replies []protocol.Reply
	for {
		reply, err := readReply(reader)
		if err == io.EOF {
			return replies, nil
		}
		if err != nil {
			return replies, err
		}
		replies = append(replies, reply)
	}
}

func parse(r io.Reader, out chan<- *Payload) {

	// 异常恢复，避免未知异常
	defer func() {
		if err := recover(); err != nil {
			logger.Error(err, string(debug.Stack()))
			out <- &Payload{Err: ErrProtocol}
			close(out)
		}
	}()

	reader := bufio.NewReader(r)
	for {
		reply, err := readReply(reader)
		if err != nil { // io.EOF（连接关闭） or 协议错误
			out <- &Payload{Err: err}
			close(out)
			return
		}
		out <- &Payload{Reply: reply}
	}
}

// 读取一行，去掉尾部 \r\n
func readLine(reader *bufio.Reader) ([]byte, error) {
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	length := len(line)
	if length < 3 || line[length-2] != '\r' {
		return nil, protocolError("illegal line " + strconv.Quote(string(line)))
	}
	return line[:length-2], nil
}

// 协议文档 ：https://redis.io/docs/reference/protocol-spec/
// The first byte in an RESP-serialized payload always identifies its type.
func readReply(reader *bufio.Reader) (protocol.Reply, error) {
	line, err := readLine(reader)
	if err != nil {
		return nil, err
	}

	switch line[0] {
	case '+': // 状态
		if string(line[1:]) == "OK" {
			return protocol.NewOkReply(), nil
		}
		return protocol.NewSimpleReply(string(line[1:])), nil
	case '-': // 错误
		return protocol.NewSimpleErrReply(string(line[1:])), nil
	case ':': // 整数
		value, err := strconv.ParseInt(string(line[1:]), 10, 64)
		if err != nil {
			return nil, protocolError("illegal integer " + string(line[1:]))
		}
		return protocol.NewIntegerReply(value), nil
	case '$': // 二进制安全字符串
		return readBulkString(line, reader)
	case '*': // 数组(可嵌套)
		return readArray(line, reader)
	}
	return nil, protocolError("unknown reply type " + strconv.Quote(string(line)))
}

// 格式： $5\r\nvalue\r\n
func readBulkString(header []byte, reader *bufio.Reader) (protocol.Reply, error) {
	byteNum, err := strconv.ParseInt(string(header[1:]), 10, 64)
	if err != nil || byteNum < -1 || byteNum > maxBulkLen {
		return nil, protocolError("illegal bulk string header: " + string(header))
	} else if byteNum == -1 {
		return protocol.NewNullBulkReply(), nil
	}

	body := make([]byte, byteNum+2)
	if _, err = io.ReadFull(reader, body); err != nil {
		return nil, err
	}
	if body[byteNum] != '\r' || body[byteNum+1] != '\n' {
		return nil, protocolError("bulk string without CRLF")
	}
	return protocol.NewBulkReply(body[:byteNum]), nil
}

/*
数组格式：

*2\r\n
+OK\r\n
*1\r\n
$5\r\n
world\r\n
*/
func readArray(header []byte, reader *bufio.Reader) (protocol.Reply, error) {
	bodyNum, err := strconv.ParseInt(string(header[1:]), 10, 64)
	if err != nil || bodyNum < -1 || bodyNum > maxBulkLen {
		return nil, protocolError("illegal array header " + string(header[1:]))
	}
	switch bodyNum {
	case -1:
		return protocol.NewNullMultiBulkReply(), nil
	case 0:
		return protocol.NewEmptyMultiBulkReply(), nil
	}

	replies := make([]protocol.Reply, 0, min(bodyNum, maxArrayPrealloc))
	for i := int64(0); i < bodyNum; i++ {
		reply, err := readReply(reader)
		if err == io.EOF { // 数组读到一半连接断开
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}
		replies = append(replies, reply)
	}
	return protocol.NewMultiRawReply(replies...), nil
}

func protocolError(msg string) error {
	return errors.Wrap(ErrProtocol, msg)
}
