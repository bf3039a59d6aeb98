package protocol

import "github.com/gofish2020/easyclient/utils"

// +OK\r\n
var okReply = &OKReply{}

type OKReply struct{}

func (r *OKReply) ToBytes() []byte {
	return []byte("+OK" + utils.CRLF)
}

func NewOkReply() *OKReply {
	return okReply
}

// 简单字符串(状态) +PONG\r\n +QUEUED\r\n
type SimpleReply struct {
	Str string
}

func (s *SimpleReply) ToBytes() []byte {
	return []byte("+" + s.Str + utils.CRLF)
}

func NewSimpleReply(str string) *SimpleReply {
	return &SimpleReply{
		Str: str,
	}
}

// 状态回复的文本
func StatusOf(reply Reply) (string, bool) {
	switch r := reply.(type) {
	case *OKReply:
		return "OK", true
	case *SimpleReply:
		return r.Str, true
	}
	return "", false
}

func IsOKReply(reply Reply) bool {
	str, ok := StatusOf(reply)
	return ok && str == "OK"
}

// 事务入队成功 +QUEUED
func IsQueuedReply(reply Reply) bool {
	str, ok := StatusOf(reply)
	return ok && str == "QUEUED"
}
