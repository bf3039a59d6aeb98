package protocol

import (
	"strings"

	"github.com/gofish2020/easyclient/utils"
)

// 服务端返回的错误 -ERR xxxx / -WRONGTYPE xxxx
type SimpleErrReply struct {
	Status string
}

func NewSimpleErrReply(status string) *SimpleErrReply {
	return &SimpleErrReply{
		Status: status,
	}
}

func (s *SimpleErrReply) ToBytes() []byte {
	return []byte("-" + s.Status + utils.CRLF)
}

func (s *SimpleErrReply) Error() string {
	return s.Status
}

// 错误前缀，例如 ERR / WRONGTYPE / EXECABORT
func (s *SimpleErrReply) Prefix() string {
	if idx := strings.IndexByte(s.Status, ' '); idx > 0 {
		return s.Status[:idx]
	}
	return s.Status
}

// 是否为Err
func IsErrReply(reply Reply) bool {
	_, ok := reply.(ErrorReply)
	return ok
}
