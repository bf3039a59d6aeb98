package protocol

// Reply 服务端返回的一个完整的RESP帧
type Reply interface {
	ToBytes() []byte
}

// ErrorReply 以 '-' 开头的错误帧
type ErrorReply interface {
	Reply
	Error() string
}
