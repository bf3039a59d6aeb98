package command

import (
	"strconv"
	"strings"
)

// 命令参数（不包含命令名）
type CommandArgs struct {
	args [][]byte
}

func NewArgs() *CommandArgs {
	return &CommandArgs{}
}

func (a *CommandArgs) Add(values ...string) *CommandArgs {
	for _, v := range values {
		a.AddBytes([]byte(v))
	}
	return a
}

// 二进制安全的参数
func (a *CommandArgs) AddBytes(value []byte) *CommandArgs {
	a.args = append(a.args, value)
	return a
}

func (a *CommandArgs) AddInt(n int64) *CommandArgs {
	a.args = append(a.args, []byte(strconv.FormatInt(n, 10)))
	return a
}

func (a *CommandArgs) AddFloat(f float64) *CommandArgs {
	a.args = append(a.args, []byte(strconv.FormatFloat(f, 'f', -1, 64)))
	return a
}

// key value key value ...
func (a *CommandArgs) AddMap(kv map[string]string) *CommandArgs {
	for k, v := range kv {
		a.args = append(a.args, []byte(k), []byte(v))
	}
	return a
}

func (a *CommandArgs) Count() int {
	if a == nil {
		return 0
	}
	return len(a.args)
}

// 命令行： name arg1 arg2 ...
func (a *CommandArgs) Line(typ CommandType) [][]byte {
	line := make([][]byte, 0, a.Count()+1)
	line = append(line, []byte(typ))
	if a != nil {
		line = append(line, a.args...)
	}
	return line
}

func (a *CommandArgs) String() string {
	if a == nil {
		return ""
	}
	parts := make([]string, len(a.args))
	for i, arg := range a.args {
		parts[i] = string(arg)
	}
	return strings.Join(parts, " ")
}
