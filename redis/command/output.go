package command

import (
	"strconv"

	"github.com/gofish2020/easyclient/redis/protocol"
	"github.com/pkg/errors"
)

/*
结果对象：将服务端的回复解码成具体类型
1.Set 只能调用一次（NestedMultiOutput 除外）
2.服务端错误通过 SetError 保存，作为值返回，而不是 Get 的错误
*/

type Output[T any] interface {
	// 保存回复并解码
	Set(reply protocol.Reply) error
	// 保存服务端错误
	SetError(msg string)
	// 服务端错误（没有则为nil）
	Error() error
	// 解码结果 or 解码错误
	Get() (T, error)
}

type DecodeFunc[T any] func(reply protocol.Reply) (T, error)

type CommandOutput[T any] struct {
	decode DecodeFunc[T]

	value     T
	set       bool
	err       error
	decodeErr error
}

func NewOutput[T any](decode DecodeFunc[T]) *CommandOutput[T] {
	return &CommandOutput[T]{decode: decode}
}

func (o *CommandOutput[T]) Set(reply protocol.Reply) error {
	if o.decode == nil {
		return errors.Wrap(ErrIllegalState, "output does not accept replies")
	}
	if o.set {
		return errors.Wrap(ErrIllegalState, "output already set")
	}
	o.set = true
	value, err := o.decode(reply)
	if err != nil {
		o.decodeErr = err
		return err
	}
	o.value = value
	return nil
}

func (o *CommandOutput[T]) SetError(msg string) {
	o.err = RedisError(msg)
}

func (o *CommandOutput[T]) Error() error {
	return o.err
}

func (o *CommandOutput[T]) Get() (T, error) {
	return o.value, o.decodeErr
}

func (o *CommandOutput[T]) String() string {
	if o.err != nil {
		return "error=" + o.err.Error()
	}
	if o.decodeErr != nil {
		return "decodeErr=" + o.decodeErr.Error()
	}
	return "value=" + toString(o.value)
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return "<nil>"
	}
	return "..."
}

func decodeError(target string, reply protocol.Reply) *DecodeError {
	raw := "<nil>"
	if reply != nil {
		raw = strconv.Quote(string(reply.ToBytes()))
	}
	return &DecodeError{Target: target, Reply: raw}
}

// ***************** 具体的结果类型 *****************

// 状态 +OK / +PONG
func NewStatusOutput() *CommandOutput[string] {
	return NewOutput(decodeStatus)
}

func decodeStatus(reply protocol.Reply) (string, error) {
	if str, ok := protocol.StatusOf(reply); ok {
		return str, nil
	}
	if bulk, ok := reply.(*protocol.BulkReply); ok {
		return string(bulk.Arg), nil
	}
	return "", decodeError("status", reply)
}

// 字符串值（nil bulk 解码为 ""）
func NewValueOutput() *CommandOutput[string] {
	return NewOutput(decodeValue)
}

func decodeValue(reply protocol.Reply) (string, error) {
	switch r := reply.(type) {
	case *protocol.BulkReply:
		return string(r.Arg), nil
	case *protocol.NullBulkReply:
		return "", nil
	}
	if str, ok := protocol.StatusOf(reply); ok {
		return str, nil
	}
	return "", decodeError("value", reply)
}

// 整数
func NewIntegerOutput() *CommandOutput[int64] {
	return NewOutput(decodeInteger)
}

func decodeInteger(reply protocol.Reply) (int64, error) {
	switch r := reply.(type) {
	case *protocol.IntegerReply:
		return r.Integer, nil
	case *protocol.NullBulkReply:
		return 0, nil
	}
	return 0, decodeError("integer", reply)
}

// 布尔（:1 / :0 / +OK / nil）
func NewBooleanOutput() *CommandOutput[bool] {
	return NewOutput(decodeBoolean)
}

func decodeBoolean(reply protocol.Reply) (bool, error) {
	switch r := reply.(type) {
	case *protocol.IntegerReply:
		return r.Integer != 0, nil
	case *protocol.NullBulkReply:
		return false, nil
	}
	if protocol.IsOKReply(reply) {
		return true, nil
	}
	return false, decodeError("boolean", reply)
}

// 浮点数（ZSCORE 以 bulk 形式返回）
func NewDoubleOutput() *CommandOutput[float64] {
	return NewOutput(decodeDouble)
}

func decodeDouble(reply protocol.Reply) (float64, error) {
	switch r := reply.(type) {
	case *protocol.BulkReply:
		f, err := strconv.ParseFloat(string(r.Arg), 64)
		if err != nil {
			e := decodeError("double", reply)
			e.Err = err
			return 0, e
		}
		return f, nil
	case *protocol.NullBulkReply:
		return 0, nil
	case *protocol.IntegerReply:
		return float64(r.Integer), nil
	}
	return 0, decodeError("double", reply)
}

// 字符串列表
func NewValueListOutput() *CommandOutput[[]string] {
	return NewOutput(decodeValueList)
}

func decodeValueList(reply protocol.Reply) ([]string, error) {
	switch r := reply.(type) {
	case *protocol.EmptyMultiBulkReply, *protocol.NullMultiBulkReply:
		return []string{}, nil
	case *protocol.MultiRawReply:
		result := make([]string, 0, len(r.Replies))
		for _, sub := range r.Replies {
			value, err := decodeValue(sub)
			if err != nil {
				return nil, decodeError("value list", reply)
			}
			result = append(result, value)
		}
		return result, nil
	}
	return nil, decodeError("value list", reply)
}

// key value key value ... => map
func NewMapOutput() *CommandOutput[map[string]string] {
	return NewOutput(decodeMap)
}

func decodeMap(reply protocol.Reply) (map[string]string, error) {
	values, err := decodeValueList(reply)
	if err != nil {
		return nil, decodeError("map", reply)
	}
	if len(values)%2 != 0 {
		return nil, decodeError("map", reply)
	}
	result := make(map[string]string, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		result[values[i]] = values[i+1]
	}
	return result, nil
}

// 任意回复 => Go值：string / int64 / []any / RedisError / nil
func NewRawOutput() *CommandOutput[any] {
	return NewOutput(func(reply protocol.Reply) (any, error) {
		return ToValue(reply), nil
	})
}

func ToValue(reply protocol.Reply) any {
	switch r := reply.(type) {
	case protocol.ErrorReply:
		return RedisError(r.Error())
	case *protocol.IntegerReply:
		return r.Integer
	case *protocol.BulkReply:
		return string(r.Arg)
	case *protocol.NullBulkReply, *protocol.NullMultiBulkReply, nil:
		return nil
	case *protocol.EmptyMultiBulkReply:
		return []any{}
	case *protocol.MultiRawReply:
		values := make([]any, 0, len(r.Replies))
		for _, sub := range r.Replies {
			values = append(values, ToValue(sub))
		}
		return values
	}
	if str, ok := protocol.StatusOf(reply); ok {
		return str
	}
	return nil
}

// 嵌套数组，元素本身可以是错误（EXEC的返回）
// 允许多次 Set / SetError，每次追加元素
type NestedMultiOutput struct {
	values  []any
	err     error
	aborted bool
}

func NewNestedMultiOutput() *NestedMultiOutput {
	return &NestedMultiOutput{values: []any{}}
}

func (o *NestedMultiOutput) Set(reply protocol.Reply) error {
	switch r := reply.(type) {
	case *protocol.NullMultiBulkReply: // 事务被放弃（watch的key发生变化）
		o.aborted = true
	case *protocol.EmptyMultiBulkReply:
	case *protocol.MultiRawReply:
		for _, sub := range r.Replies {
			o.values = append(o.values, ToValue(sub))
		}
	default:
		o.values = append(o.values, ToValue(reply))
	}
	return nil
}

func (o *NestedMultiOutput) SetError(msg string) {
	e := RedisError(msg)
	if o.err == nil {
		o.err = e
	}
	o.values = append(o.values, e)
}

func (o *NestedMultiOutput) Error() error {
	return o.err
}

func (o *NestedMultiOutput) Get() ([]any, error) {
	return o.values, nil
}

// 事务是否被服务端放弃
func (o *NestedMultiOutput) Aborted() bool {
	return o.aborted
}
