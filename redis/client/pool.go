package client

import (
	"context"
	"sync"

	"github.com/gofish2020/easyclient/redis/command"
	"github.com/gofish2020/easyclient/tool/logger"
	"github.com/gofish2020/easyclient/tool/pool"
	"github.com/pkg/errors"
)

/*
RedisConnectionPool 连接池：
1.Allocate 借出一个连接（包装为 PooledConnection）
2.PooledConnection.Close 把连接还给连接池，而不是关闭连接
*/
type RedisConnectionPool struct {
	opts    Options
	pool    *pool.Pool[*RedisConnection]
	handler *ChannelHandler
}

func NewRedisConnectionPool(opts Options) *RedisConnectionPool {
	p := &RedisConnectionPool{opts: opts}

	factory := func() (*RedisConnection, error) {
		ctx, cancel := context.WithTimeout(context.Background(), opts.connectTimeout())
		defer cancel()
		conn, err := Dial(ctx, opts)
		if err != nil {
			logger.Errorf("pool create connection to %s: %v", opts.Addr, err)
			return nil, err
		}
		poolCreated.Inc()
		return conn, nil
	}
	finalizer := func(conn *RedisConnection) {
		poolDestroy.Inc()
		if !conn.handler.IsClosed() {
			conn.Close()
		}
	}
	p.pool = pool.NewPool(factory, finalizer, pool.Config{
		MaxIdles:  opts.PoolMaxIdle,
		MaxActive: opts.PoolMaxActive,
	})
	p.handler = NewChannelHandler(p, p.pool.Close)
	p.handler.Activated()
	return p
}

// 借出连接：最多 PoolMaxActive 个，超过时阻塞等待（直到有连接归还 or ctx 结束）
func (p *RedisConnectionPool) Allocate(ctx context.Context) (*PooledConnection, error) {
	if p.handler.IsClosed() {
		return nil, errors.Wrap(command.ErrConnectionClosed, "pool closed")
	}
	for {
		conn, err := p.pool.Get(ctx)
		if err != nil {
			if errors.Is(err, pool.ErrClosed) {
				return nil, errors.Wrap(command.ErrConnectionClosed, "pool closed")
			}
			return nil, errors.Wrap(err, "allocate connection")
		}
		// 空闲期间断开的连接
		if !conn.IsOpen() {
			p.pool.Discard(conn)
			continue
		}
		poolBorrowed.Inc()
		return &PooledConnection{conn: conn, pool: p}, nil
	}
}

// 归还连接：事务未结束 or 已关闭的连接直接销毁
func (p *RedisConnectionPool) release(conn *RedisConnection) {
	poolReleased.Inc()
	if !conn.IsOpen() || conn.IsMulti() {
		p.pool.Discard(conn)
		return
	}
	p.pool.Put(conn)
}

func (p *RedisConnectionPool) Stats() pool.Stats {
	return p.pool.Stats()
}

func (p *RedisConnectionPool) Options() Options {
	return p.opts
}

func (p *RedisConnectionPool) IsOpen() bool {
	return p.handler.IsOpen()
}

func (p *RedisConnectionPool) Handler() *ChannelHandler {
	return p.handler
}

// 关闭连接池：释放空闲连接，借出的连接归还时释放
func (p *RedisConnectionPool) Close() error {
	return p.handler.Close()
}

// 连接池中禁止执行的命令（会改变共享连接的状态）
var disabledOperations = map[command.CommandType]struct{}{
	command.AUTH:   {},
	command.SELECT: {},
	command.QUIT:   {},
}

// 连接池借出的连接：Close 时归还给连接池
type PooledConnection struct {
	mu   sync.Mutex
	conn *RedisConnection
	pool *RedisConnectionPool
}

// 检查命令是否允许 & 连接是否已经归还
func (pc *PooledConnection) bound(typ command.CommandType) (*RedisConnection, error) {
	if _, ok := disabledOperations[typ]; ok {
		return nil, errors.Wrapf(command.ErrUnsupported, "calls to %s", typ)
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.conn == nil {
		return nil, command.ErrDeallocated
	}
	return pc.conn, nil
}

// 底层连接（已归还则为nil）
func (pc *PooledConnection) Connection() *RedisConnection {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.conn
}

func (pc *PooledConnection) Close() error {
	pc.mu.Lock()
	conn := pc.conn
	pc.conn = nil
	pc.mu.Unlock()

	if conn == nil {
		return command.ErrDeallocated
	}
	pc.pool.release(conn)
	return nil
}

func (pc *PooledConnection) IsOpen() bool {
	conn := pc.Connection()
	return conn != nil && conn.IsOpen()
}

func (pc *PooledConnection) IsMulti() bool {
	conn := pc.Connection()
	return conn != nil && conn.IsMulti()
}

func (pc *PooledConnection) Dispatch(cmd command.RedisCommand) (command.RedisCommand, error) {
	conn, err := pc.bound(cmd.Type())
	if err != nil {
		return cmd, err
	}
	return conn.Dispatch(cmd)
}

func (pc *PooledConnection) Ping() (*command.Command[string], error) {
	conn, err := pc.bound(command.PING)
	if err != nil {
		return nil, err
	}
	return conn.Ping()
}

func (pc *PooledConnection) Echo(msg string) (*command.Command[string], error) {
	conn, err := pc.bound(command.ECHO)
	if err != nil {
		return nil, err
	}
	return conn.Echo(msg)
}

func (pc *PooledConnection) Auth(password string) (*command.Command[string], error) {
	conn, err := pc.bound(command.AUTH)
	if err != nil {
		return nil, err
	}
	return conn.Auth(password)
}

func (pc *PooledConnection) Select(db int) (*command.Command[string], error) {
	conn, err := pc.bound(command.SELECT)
	if err != nil {
		return nil, err
	}
	return conn.Select(db)
}

func (pc *PooledConnection) Quit() (*command.Command[string], error) {
	conn, err := pc.bound(command.QUIT)
	if err != nil {
		return nil, err
	}
	return conn.Quit()
}

func (pc *PooledConnection) ClientSetName(name string) (*command.Command[string], error) {
	conn, err := pc.bound(command.CLIENT)
	if err != nil {
		return nil, err
	}
	return conn.ClientSetName(name)
}

func (pc *PooledConnection) Del(keys ...string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.DEL)
	if err != nil {
		return nil, err
	}
	return conn.Del(keys...)
}

func (pc *PooledConnection) Exists(key string) (*command.Command[bool], error) {
	conn, err := pc.bound(command.EXISTS)
	if err != nil {
		return nil, err
	}
	return conn.Exists(key)
}

func (pc *PooledConnection) Expire(key string, seconds int64) (*command.Command[bool], error) {
	conn, err := pc.bound(command.EXPIRE)
	if err != nil {
		return nil, err
	}
	return conn.Expire(key, seconds)
}

func (pc *PooledConnection) TTL(key string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.TTL)
	if err != nil {
		return nil, err
	}
	return conn.TTL(key)
}

func (pc *PooledConnection) Type(key string) (*command.Command[string], error) {
	conn, err := pc.bound(command.TYPE)
	if err != nil {
		return nil, err
	}
	return conn.Type(key)
}

func (pc *PooledConnection) Keys(pattern string) (*command.Command[[]string], error) {
	conn, err := pc.bound(command.KEYS)
	if err != nil {
		return nil, err
	}
	return conn.Keys(pattern)
}

func (pc *PooledConnection) Get(key string) (*command.Command[string], error) {
	conn, err := pc.bound(command.GET)
	if err != nil {
		return nil, err
	}
	return conn.Get(key)
}

func (pc *PooledConnection) Set(key, value string) (*command.Command[string], error) {
	conn, err := pc.bound(command.SET)
	if err != nil {
		return nil, err
	}
	return conn.Set(key, value)
}

func (pc *PooledConnection) SetEx(key string, seconds int64, value string) (*command.Command[string], error) {
	conn, err := pc.bound(command.SETEX)
	if err != nil {
		return nil, err
	}
	return conn.SetEx(key, seconds, value)
}

func (pc *PooledConnection) Incr(key string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.INCR)
	if err != nil {
		return nil, err
	}
	return conn.Incr(key)
}

func (pc *PooledConnection) IncrBy(key string, n int64) (*command.Command[int64], error) {
	conn, err := pc.bound(command.INCRBY)
	if err != nil {
		return nil, err
	}
	return conn.IncrBy(key, n)
}

func (pc *PooledConnection) Append(key, value string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.APPEND)
	if err != nil {
		return nil, err
	}
	return conn.Append(key, value)
}

func (pc *PooledConnection) MGet(keys ...string) (*command.Command[[]string], error) {
	conn, err := pc.bound(command.MGET)
	if err != nil {
		return nil, err
	}
	return conn.MGet(keys...)
}

func (pc *PooledConnection) MSet(kv map[string]string) (*command.Command[string], error) {
	conn, err := pc.bound(command.MSET)
	if err != nil {
		return nil, err
	}
	return conn.MSet(kv)
}

func (pc *PooledConnection) StrLen(key string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.STRLEN)
	if err != nil {
		return nil, err
	}
	return conn.StrLen(key)
}

func (pc *PooledConnection) HSet(key, field, value string) (*command.Command[bool], error) {
	conn, err := pc.bound(command.HSET)
	if err != nil {
		return nil, err
	}
	return conn.HSet(key, field, value)
}

func (pc *PooledConnection) HGet(key, field string) (*command.Command[string], error) {
	conn, err := pc.bound(command.HGET)
	if err != nil {
		return nil, err
	}
	return conn.HGet(key, field)
}

func (pc *PooledConnection) HGetAll(key string) (*command.Command[map[string]string], error) {
	conn, err := pc.bound(command.HGETALL)
	if err != nil {
		return nil, err
	}
	return conn.HGetAll(key)
}

func (pc *PooledConnection) HDel(key string, fields ...string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.HDEL)
	if err != nil {
		return nil, err
	}
	return conn.HDel(key, fields...)
}

func (pc *PooledConnection) HExists(key, field string) (*command.Command[bool], error) {
	conn, err := pc.bound(command.HEXISTS)
	if err != nil {
		return nil, err
	}
	return conn.HExists(key, field)
}

func (pc *PooledConnection) HKeys(key string) (*command.Command[[]string], error) {
	conn, err := pc.bound(command.HKEYS)
	if err != nil {
		return nil, err
	}
	return conn.HKeys(key)
}

func (pc *PooledConnection) HLen(key string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.HLEN)
	if err != nil {
		return nil, err
	}
	return conn.HLen(key)
}

func (pc *PooledConnection) HIncrBy(key, field string, n int64) (*command.Command[int64], error) {
	conn, err := pc.bound(command.HINCRBY)
	if err != nil {
		return nil, err
	}
	return conn.HIncrBy(key, field, n)
}

func (pc *PooledConnection) LPush(key string, values ...string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.LPUSH)
	if err != nil {
		return nil, err
	}
	return conn.LPush(key, values...)
}

func (pc *PooledConnection) RPush(key string, values ...string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.RPUSH)
	if err != nil {
		return nil, err
	}
	return conn.RPush(key, values...)
}

func (pc *PooledConnection) LPop(key string) (*command.Command[string], error) {
	conn, err := pc.bound(command.LPOP)
	if err != nil {
		return nil, err
	}
	return conn.LPop(key)
}

func (pc *PooledConnection) RPop(key string) (*command.Command[string], error) {
	conn, err := pc.bound(command.RPOP)
	if err != nil {
		return nil, err
	}
	return conn.RPop(key)
}

func (pc *PooledConnection) LRange(key string, start, stop int64) (*command.Command[[]string], error) {
	conn, err := pc.bound(command.LRANGE)
	if err != nil {
		return nil, err
	}
	return conn.LRange(key, start, stop)
}

func (pc *PooledConnection) LLen(key string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.LLEN)
	if err != nil {
		return nil, err
	}
	return conn.LLen(key)
}

func (pc *PooledConnection) SAdd(key string, members ...string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.SADD)
	if err != nil {
		return nil, err
	}
	return conn.SAdd(key, members...)
}

func (pc *PooledConnection) SMembers(key string) (*command.Command[[]string], error) {
	conn, err := pc.bound(command.SMEMBERS)
	if err != nil {
		return nil, err
	}
	return conn.SMembers(key)
}

func (pc *PooledConnection) SIsMember(key, member string) (*command.Command[bool], error) {
	conn, err := pc.bound(command.SISMEMBER)
	if err != nil {
		return nil, err
	}
	return conn.SIsMember(key, member)
}

func (pc *PooledConnection) ZAdd(key string, score float64, member string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.ZADD)
	if err != nil {
		return nil, err
	}
	return conn.ZAdd(key, score, member)
}

func (pc *PooledConnection) ZScore(key, member string) (*command.Command[float64], error) {
	conn, err := pc.bound(command.ZSCORE)
	if err != nil {
		return nil, err
	}
	return conn.ZScore(key, member)
}

func (pc *PooledConnection) ZRange(key string, start, stop int64) (*command.Command[[]string], error) {
	conn, err := pc.bound(command.ZRANGE)
	if err != nil {
		return nil, err
	}
	return conn.ZRange(key, start, stop)
}

func (pc *PooledConnection) ZCard(key string) (*command.Command[int64], error) {
	conn, err := pc.bound(command.ZCARD)
	if err != nil {
		return nil, err
	}
	return conn.ZCard(key)
}

func (pc *PooledConnection) Multi() (*command.Command[string], error) {
	conn, err := pc.bound(command.MULTI)
	if err != nil {
		return nil, err
	}
	return conn.Multi()
}

func (pc *PooledConnection) Exec() (*command.Command[[]any], error) {
	conn, err := pc.bound(command.EXEC)
	if err != nil {
		return nil, err
	}
	return conn.Exec()
}

func (pc *PooledConnection) Discard() (*command.Command[string], error) {
	conn, err := pc.bound(command.DISCARD)
	if err != nil {
		return nil, err
	}
	return conn.Discard()
}

func (pc *PooledConnection) Watch(keys ...string) (*command.Command[string], error) {
	conn, err := pc.bound(command.WATCH)
	if err != nil {
		return nil, err
	}
	return conn.Watch(keys...)
}

func (pc *PooledConnection) Unwatch() (*command.Command[string], error) {
	conn, err := pc.bound(command.UNWATCH)
	if err != nil {
		return nil, err
	}
	return conn.Unwatch()
}

func (pc *PooledConnection) DBSize() (*command.Command[int64], error) {
	conn, err := pc.bound(command.DBSIZE)
	if err != nil {
		return nil, err
	}
	return conn.DBSize()
}

func (pc *PooledConnection) FlushDB() (*command.Command[string], error) {
	conn, err := pc.bound(command.FLUSHDB)
	if err != nil {
		return nil, err
	}
	return conn.FlushDB()
}

func (pc *PooledConnection) Info() (*command.Command[string], error) {
	conn, err := pc.bound(command.INFO)
	if err != nil {
		return nil, err
	}
	return conn.Info()
}
