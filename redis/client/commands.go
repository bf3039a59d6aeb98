package client

import (
	"github.com/gofish2020/easyclient/redis/command"
)

// 异步命令集合：RedisConnection 和 PooledConnection 都实现了该接口
type Commands interface {
	// connection
	Ping() (*command.Command[string], error)
	Echo(msg string) (*command.Command[string], error)
	Auth(password string) (*command.Command[string], error)
	Select(db int) (*command.Command[string], error)
	Quit() (*command.Command[string], error)
	ClientSetName(name string) (*command.Command[string], error)

	// keys
	Del(keys ...string) (*command.Command[int64], error)
	Exists(key string) (*command.Command[bool], error)
	Expire(key string, seconds int64) (*command.Command[bool], error)
	TTL(key string) (*command.Command[int64], error)
	Type(key string) (*command.Command[string], error)
	Keys(pattern string) (*command.Command[[]string], error)

	// strings
	Get(key string) (*command.Command[string], error)
	Set(key, value string) (*command.Command[string], error)
	SetEx(key string, seconds int64, value string) (*command.Command[string], error)
	Incr(key string) (*command.Command[int64], error)
	IncrBy(key string, n int64) (*command.Command[int64], error)
	Append(key, value string) (*command.Command[int64], error)
	MGet(keys ...string) (*command.Command[[]string], error)
	MSet(kv map[string]string) (*command.Command[string], error)
	StrLen(key string) (*command.Command[int64], error)

	// hashes
	HSet(key, field, value string) (*command.Command[bool], error)
	HGet(key, field string) (*command.Command[string], error)
	HGetAll(key string) (*command.Command[map[string]string], error)
	HDel(key string, fields ...string) (*command.Command[int64], error)
	HExists(key, field string) (*command.Command[bool], error)
	HKeys(key string) (*command.Command[[]string], error)
	HLen(key string) (*command.Command[int64], error)
	HIncrBy(key, field string, n int64) (*command.Command[int64], error)

	// lists
	LPush(key string, values ...string) (*command.Command[int64], error)
	RPush(key string, values ...string) (*command.Command[int64], error)
	LPop(key string) (*command.Command[string], error)
	RPop(key string) (*command.Command[string], error)
	LRange(key string, start, stop int64) (*command.Command[[]string], error)
	LLen(key string) (*command.Command[int64], error)

	// sets
	SAdd(key string, members ...string) (*command.Command[int64], error)
	SMembers(key string) (*command.Command[[]string], error)
	SIsMember(key, member string) (*command.Command[bool], error)

	// sorted sets
	ZAdd(key string, score float64, member string) (*command.Command[int64], error)
	ZScore(key, member string) (*command.Command[float64], error)
	ZRange(key string, start, stop int64) (*command.Command[[]string], error)
	ZCard(key string) (*command.Command[int64], error)

	// transactions
	Multi() (*command.Command[string], error)
	Exec() (*command.Command[[]any], error)
	Discard() (*command.Command[string], error)
	Watch(keys ...string) (*command.Command[string], error)
	Unwatch() (*command.Command[string], error)

	// server
	DBSize() (*command.Command[int64], error)
	FlushDB() (*command.Command[string], error)
	Info() (*command.Command[string], error)

	Dispatch(cmd command.RedisCommand) (command.RedisCommand, error)
	Close() error
	IsOpen() bool
	IsMulti() bool
}

var (
	_ Commands = (*RedisConnection)(nil)
	_ Commands = (*PooledConnection)(nil)
)

// ***************** connection *****************

func (c *RedisConnection) Ping() (*command.Command[string], error) {
	return submit[string](c, command.PING, command.NewStatusOutput(), nil)
}

func (c *RedisConnection) Echo(msg string) (*command.Command[string], error) {
	return submit[string](c, command.ECHO, command.NewValueOutput(), command.NewArgs().Add(msg))
}

// 认证成功后，重连使用新密码
func (c *RedisConnection) Auth(password string) (*command.Command[string], error) {
	return submitThen[string](c, command.AUTH, command.NewStatusOutput(), command.NewArgs().Add(password), func() {
		c.updateOptions(func(opts *Options) { opts.Password = password })
	})
}

// 重连后选择同一个db
func (c *RedisConnection) Select(db int) (*command.Command[string], error) {
	return submitThen[string](c, command.SELECT, command.NewStatusOutput(), command.NewArgs().AddInt(int64(db)), func() {
		c.updateOptions(func(opts *Options) { opts.Database = db })
	})
}

// 服务端确认后不再重连
func (c *RedisConnection) Quit() (*command.Command[string], error) {
	return submitThen[string](c, command.QUIT, command.NewStatusOutput(), nil, func() {
		c.endpoint.noReconnect.Store(true)
	})
}

func (c *RedisConnection) ClientSetName(name string) (*command.Command[string], error) {
	return submitThen[string](c, command.CLIENT, command.NewStatusOutput(), command.NewArgs().Add("SETNAME", name), func() {
		c.updateOptions(func(opts *Options) { opts.ClientName = name })
	})
}

// ***************** keys *****************

func (c *RedisConnection) Del(keys ...string) (*command.Command[int64], error) {
	return submit[int64](c, command.DEL, command.NewIntegerOutput(), command.NewArgs().Add(keys...))
}

func (c *RedisConnection) Exists(key string) (*command.Command[bool], error) {
	return submit[bool](c, command.EXISTS, command.NewBooleanOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) Expire(key string, seconds int64) (*command.Command[bool], error) {
	return submit[bool](c, command.EXPIRE, command.NewBooleanOutput(), command.NewArgs().Add(key).AddInt(seconds))
}

func (c *RedisConnection) TTL(key string) (*command.Command[int64], error) {
	return submit[int64](c, command.TTL, command.NewIntegerOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) Type(key string) (*command.Command[string], error) {
	return submit[string](c, command.TYPE, command.NewStatusOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) Keys(pattern string) (*command.Command[[]string], error) {
	return submit[[]string](c, command.KEYS, command.NewValueListOutput(), command.NewArgs().Add(pattern))
}

// ***************** strings *****************

func (c *RedisConnection) Get(key string) (*command.Command[string], error) {
	return submit[string](c, command.GET, command.NewValueOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) Set(key, value string) (*command.Command[string], error) {
	return submit[string](c, command.SET, command.NewStatusOutput(), command.NewArgs().Add(key, value))
}

func (c *RedisConnection) SetEx(key string, seconds int64, value string) (*command.Command[string], error) {
	return submit[string](c, command.SETEX, command.NewStatusOutput(), command.NewArgs().Add(key).AddInt(seconds).Add(value))
}

func (c *RedisConnection) Incr(key string) (*command.Command[int64], error) {
	return submit[int64](c, command.INCR, command.NewIntegerOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) IncrBy(key string, n int64) (*command.Command[int64], error) {
	return submit[int64](c, command.INCRBY, command.NewIntegerOutput(), command.NewArgs().Add(key).AddInt(n))
}

func (c *RedisConnection) Append(key, value string) (*command.Command[int64], error) {
	return submit[int64](c, command.APPEND, command.NewIntegerOutput(), command.NewArgs().Add(key, value))
}

func (c *RedisConnection) MGet(keys ...string) (*command.Command[[]string], error) {
	return submit[[]string](c, command.MGET, command.NewValueListOutput(), command.NewArgs().Add(keys...))
}

func (c *RedisConnection) MSet(kv map[string]string) (*command.Command[string], error) {
	return submit[string](c, command.MSET, command.NewStatusOutput(), command.NewArgs().AddMap(kv))
}

func (c *RedisConnection) StrLen(key string) (*command.Command[int64], error) {
	return submit[int64](c, command.STRLEN, command.NewIntegerOutput(), command.NewArgs().Add(key))
}

// ***************** hashes *****************

func (c *RedisConnection) HSet(key, field, value string) (*command.Command[bool], error) {
	return submit[bool](c, command.HSET, command.NewBooleanOutput(), command.NewArgs().Add(key, field, value))
}

func (c *RedisConnection) HGet(key, field string) (*command.Command[string], error) {
	return submit[string](c, command.HGET, command.NewValueOutput(), command.NewArgs().Add(key, field))
}

func (c *RedisConnection) HGetAll(key string) (*command.Command[map[string]string], error) {
	return submit[map[string]string](c, command.HGETALL, command.NewMapOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) HDel(key string, fields ...string) (*command.Command[int64], error) {
	return submit[int64](c, command.HDEL, command.NewIntegerOutput(), command.NewArgs().Add(key).Add(fields...))
}

func (c *RedisConnection) HExists(key, field string) (*command.Command[bool], error) {
	return submit[bool](c, command.HEXISTS, command.NewBooleanOutput(), command.NewArgs().Add(key, field))
}

func (c *RedisConnection) HKeys(key string) (*command.Command[[]string], error) {
	return submit[[]string](c, command.HKEYS, command.NewValueListOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) HLen(key string) (*command.Command[int64], error) {
	return submit[int64](c, command.HLEN, command.NewIntegerOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) HIncrBy(key, field string, n int64) (*command.Command[int64], error) {
	return submit[int64](c, command.HINCRBY, command.NewIntegerOutput(), command.NewArgs().Add(key, field).AddInt(n))
}

// ***************** lists *****************

func (c *RedisConnection) LPush(key string, values ...string) (*command.Command[int64], error) {
	return submit[int64](c, command.LPUSH, command.NewIntegerOutput(), command.NewArgs().Add(key).Add(values...))
}

func (c *RedisConnection) RPush(key string, values ...string) (*command.Command[int64], error) {
	return submit[int64](c, command.RPUSH, command.NewIntegerOutput(), command.NewArgs().Add(key).Add(values...))
}

func (c *RedisConnection) LPop(key string) (*command.Command[string], error) {
	return submit[string](c, command.LPOP, command.NewValueOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) RPop(key string) (*command.Command[string], error) {
	return submit[string](c, command.RPOP, command.NewValueOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) LRange(key string, start, stop int64) (*command.Command[[]string], error) {
	return submit[[]string](c, command.LRANGE, command.NewValueListOutput(), command.NewArgs().Add(key).AddInt(start).AddInt(stop))
}

func (c *RedisConnection) LLen(key string) (*command.Command[int64], error) {
	return submit[int64](c, command.LLEN, command.NewIntegerOutput(), command.NewArgs().Add(key))
}

// ***************** sets *****************

func (c *RedisConnection) SAdd(key string, members ...string) (*command.Command[int64], error) {
	return submit[int64](c, command.SADD, command.NewIntegerOutput(), command.NewArgs().Add(key).Add(members...))
}

func (c *RedisConnection) SMembers(key string) (*command.Command[[]string], error) {
	return submit[[]string](c, command.SMEMBERS, command.NewValueListOutput(), command.NewArgs().Add(key))
}

func (c *RedisConnection) SIsMember(key, member string) (*command.Command[bool], error) {
	return submit[bool](c, command.SISMEMBER, command.NewBooleanOutput(), command.NewArgs().Add(key, member))
}

// ***************** sorted sets *****************

func (c *RedisConnection) ZAdd(key string, score float64, member string) (*command.Command[int64], error) {
	return submit[int64](c, command.ZADD, command.NewIntegerOutput(), command.NewArgs().Add(key).AddFloat(score).Add(member))
}

func (c *RedisConnection) ZScore(key, member string) (*command.Command[float64], error) {
	return submit[float64](c, command.ZSCORE, command.NewDoubleOutput(), command.NewArgs().Add(key, member))
}

func (c *RedisConnection) ZRange(key string, start, stop int64) (*command.Command[[]string], error) {
	return submit[[]string](c, command.ZRANGE, command.NewValueListOutput(), command.NewArgs().Add(key).AddInt(start).AddInt(stop))
}

func (c *RedisConnection) ZCard(key string) (*command.Command[int64], error) {
	return submit[int64](c, command.ZCARD, command.NewIntegerOutput(), command.NewArgs().Add(key))
}

// ***************** transactions *****************

func (c *RedisConnection) Multi() (*command.Command[string], error) {
	return submit[string](c, command.MULTI, command.NewStatusOutput(), nil)
}

// 结果中每个元素对应事务中的一个命令；服务端错误为 command.RedisError
func (c *RedisConnection) Exec() (*command.Command[[]any], error) {
	return submit[[]any](c, command.EXEC, command.NewNestedMultiOutput(), nil)
}

func (c *RedisConnection) Discard() (*command.Command[string], error) {
	return submit[string](c, command.DISCARD, command.NewStatusOutput(), nil)
}

func (c *RedisConnection) Watch(keys ...string) (*command.Command[string], error) {
	return submit[string](c, command.WATCH, command.NewStatusOutput(), command.NewArgs().Add(keys...))
}

func (c *RedisConnection) Unwatch() (*command.Command[string], error) {
	return submit[string](c, command.UNWATCH, command.NewStatusOutput(), nil)
}

// ***************** server *****************

func (c *RedisConnection) DBSize() (*command.Command[int64], error) {
	return submit[int64](c, command.DBSIZE, command.NewIntegerOutput(), nil)
}

func (c *RedisConnection) FlushDB() (*command.Command[string], error) {
	return submit[string](c, command.FLUSHDB, command.NewStatusOutput(), nil)
}

func (c *RedisConnection) Info() (*command.Command[string], error) {
	return submit[string](c, command.INFO, command.NewValueOutput(), nil)
}
