package protocol

import (
	"io"
	"strconv"

	"github.com/gofish2020/easyclient/utils"
	"github.com/valyala/bytebufferpool"
)

// 将一条命令(数组 + bulk)编码后追加到buf中
func WriteCommand(buf *bytebufferpool.ByteBuffer, line [][]byte) {
	writeMultiBulk(buf, line)
}

func writeMultiBulk(w io.StringWriter, line [][]byte) {
	w.WriteString("*" + strconv.Itoa(len(line)) + utils.CRLF)
	for _, arg := range line {
		if arg == nil {
			w.WriteString("$-1" + utils.CRLF)
			continue
		}
		w.WriteString("$" + strconv.Itoa(len(arg)) + utils.CRLF)
		w.WriteString(string(arg))
		w.WriteString(utils.CRLF)
	}
}
