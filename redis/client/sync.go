package client

import (
	"time"

	"github.com/gofish2020/easyclient/redis/command"
)

/*
SyncConnection 同步调用：等待命令结果（最多 timeout）
1.服务端返回的错误作为 error 返回（command.RedisError）
2.事务中（MULTI之后）的命令只是进入队列，直接返回零值
*/
type SyncConnection struct {
	conn    Commands
	timeout time.Duration
}

func NewSyncConnection(conn Commands, timeout time.Duration) *SyncConnection {
	return &SyncConnection{conn: conn, timeout: timeout}
}

func await[T any](s *SyncConnection, cmd *command.Command[T], err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if s.conn.IsMulti() && !isTransactionControl(cmd.Type()) {
		return zero, nil
	}

	var value T
	if s.timeout > 0 {
		value, err = cmd.GetWithTimeout(s.timeout)
	} else {
		value, err = cmd.Get()
	}
	if err != nil {
		return zero, err
	}
	if err := cmd.Error(); err != nil {
		return zero, err
	}
	return value, nil
}

func isTransactionControl(typ command.CommandType) bool {
	switch typ {
	case command.MULTI, command.EXEC, command.DISCARD:
		return true
	}
	return false
}

// 异步连接
func (s *SyncConnection) Async() Commands {
	return s.conn
}

func (s *SyncConnection) SetTimeout(timeout time.Duration) {
	s.timeout = timeout
}

func (s *SyncConnection) Close() error {
	return s.conn.Close()
}

func (s *SyncConnection) IsOpen() bool {
	return s.conn.IsOpen()
}

func (s *SyncConnection) IsMulti() bool {
	return s.conn.IsMulti()
}

func (s *SyncConnection) Ping() (string, error) {
	cmd, err := s.conn.Ping()
	return await(s, cmd, err)
}

func (s *SyncConnection) Echo(msg string) (string, error) {
	cmd, err := s.conn.Echo(msg)
	return await(s, cmd, err)
}

func (s *SyncConnection) Auth(password string) (string, error) {
	cmd, err := s.conn.Auth(password)
	return await(s, cmd, err)
}

func (s *SyncConnection) Select(db int) (string, error) {
	cmd, err := s.conn.Select(db)
	return await(s, cmd, err)
}

func (s *SyncConnection) Quit() (string, error) {
	cmd, err := s.conn.Quit()
	return await(s, cmd, err)
}

func (s *SyncConnection) ClientSetName(name string) (string, error) {
	cmd, err := s.conn.ClientSetName(name)
	return await(s, cmd, err)
}

func (s *SyncConnection) Del(keys ...string) (int64, error) {
	cmd, err := s.conn.Del(keys...)
	return await(s, cmd, err)
}

func (s *SyncConnection) Exists(key string) (bool, error) {
	cmd, err := s.conn.Exists(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) Expire(key string, seconds int64) (bool, error) {
	cmd, err := s.conn.Expire(key, seconds)
	return await(s, cmd, err)
}

func (s *SyncConnection) TTL(key string) (int64, error) {
	cmd, err := s.conn.TTL(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) Type(key string) (string, error) {
	cmd, err := s.conn.Type(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) Keys(pattern string) ([]string, error) {
	cmd, err := s.conn.Keys(pattern)
	return await(s, cmd, err)
}

func (s *SyncConnection) Get(key string) (string, error) {
	cmd, err := s.conn.Get(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) Set(key, value string) (string, error) {
	cmd, err := s.conn.Set(key, value)
	return await(s, cmd, err)
}

func (s *SyncConnection) SetEx(key string, seconds int64, value string) (string, error) {
	cmd, err := s.conn.SetEx(key, seconds, value)
	return await(s, cmd, err)
}

func (s *SyncConnection) Incr(key string) (int64, error) {
	cmd, err := s.conn.Incr(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) IncrBy(key string, n int64) (int64, error) {
	cmd, err := s.conn.IncrBy(key, n)
	return await(s, cmd, err)
}

func (s *SyncConnection) Append(key, value string) (int64, error) {
	cmd, err := s.conn.Append(key, value)
	return await(s, cmd, err)
}

func (s *SyncConnection) MGet(keys ...string) ([]string, error) {
	cmd, err := s.conn.MGet(keys...)
	return await(s, cmd, err)
}

func (s *SyncConnection) MSet(kv map[string]string) (string, error) {
	cmd, err := s.conn.MSet(kv)
	return await(s, cmd, err)
}

func (s *SyncConnection) StrLen(key string) (int64, error) {
	cmd, err := s.conn.StrLen(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) HSet(key, field, value string) (bool, error) {
	cmd, err := s.conn.HSet(key, field, value)
	return await(s, cmd, err)
}

func (s *SyncConnection) HGet(key, field string) (string, error) {
	cmd, err := s.conn.HGet(key, field)
	return await(s, cmd, err)
}

func (s *SyncConnection) HGetAll(key string) (map[string]string, error) {
	cmd, err := s.conn.HGetAll(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) HDel(key string, fields ...string) (int64, error) {
	cmd, err := s.conn.HDel(key, fields...)
	return await(s, cmd, err)
}

func (s *SyncConnection) HExists(key, field string) (bool, error) {
	cmd, err := s.conn.HExists(key, field)
	return await(s, cmd, err)
}

func (s *SyncConnection) HKeys(key string) ([]string, error) {
	cmd, err := s.conn.HKeys(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) HLen(key string) (int64, error) {
	cmd, err := s.conn.HLen(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) HIncrBy(key, field string, n int64) (int64, error) {
	cmd, err := s.conn.HIncrBy(key, field, n)
	return await(s, cmd, err)
}

func (s *SyncConnection) LPush(key string, values ...string) (int64, error) {
	cmd, err := s.conn.LPush(key, values...)
	return await(s, cmd, err)
}

func (s *SyncConnection) RPush(key string, values ...string) (int64, error) {
	cmd, err := s.conn.RPush(key, values...)
	return await(s, cmd, err)
}

func (s *SyncConnection) LPop(key string) (string, error) {
	cmd, err := s.conn.LPop(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) RPop(key string) (string, error) {
	cmd, err := s.conn.RPop(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) LRange(key string, start, stop int64) ([]string, error) {
	cmd, err := s.conn.LRange(key, start, stop)
	return await(s, cmd, err)
}

func (s *SyncConnection) LLen(key string) (int64, error) {
	cmd, err := s.conn.LLen(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) SAdd(key string, members ...string) (int64, error) {
	cmd, err := s.conn.SAdd(key, members...)
	return await(s, cmd, err)
}

func (s *SyncConnection) SMembers(key string) ([]string, error) {
	cmd, err := s.conn.SMembers(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) SIsMember(key, member string) (bool, error) {
	cmd, err := s.conn.SIsMember(key, member)
	return await(s, cmd, err)
}

func (s *SyncConnection) ZAdd(key string, score float64, member string) (int64, error) {
	cmd, err := s.conn.ZAdd(key, score, member)
	return await(s, cmd, err)
}

func (s *SyncConnection) ZScore(key, member string) (float64, error) {
	cmd, err := s.conn.ZScore(key, member)
	return await(s, cmd, err)
}

func (s *SyncConnection) ZRange(key string, start, stop int64) ([]string, error) {
	cmd, err := s.conn.ZRange(key, start, stop)
	return await(s, cmd, err)
}

func (s *SyncConnection) ZCard(key string) (int64, error) {
	cmd, err := s.conn.ZCard(key)
	return await(s, cmd, err)
}

func (s *SyncConnection) Multi() (string, error) {
	cmd, err := s.conn.Multi()
	return await(s, cmd, err)
}

func (s *SyncConnection) Exec() ([]any, error) {
	cmd, err := s.conn.Exec()
	return await(s, cmd, err)
}

func (s *SyncConnection) Discard() (string, error) {
	cmd, err := s.conn.Discard()
	return await(s, cmd, err)
}

func (s *SyncConnection) Watch(keys ...string) (string, error) {
	cmd, err := s.conn.Watch(keys...)
	return await(s, cmd, err)
}

func (s *SyncConnection) Unwatch() (string, error) {
	cmd, err := s.conn.Unwatch()
	return await(s, cmd, err)
}

func (s *SyncConnection) DBSize() (int64, error) {
	cmd, err := s.conn.DBSize()
	return await(s, cmd, err)
}

func (s *SyncConnection) FlushDB() (string, error) {
	cmd, err := s.conn.FlushDB()
	return await(s, cmd, err)
}

func (s *SyncConnection) Info() (string, error) {
	cmd, err := s.conn.Info()
	return await(s, cmd, err)
}
