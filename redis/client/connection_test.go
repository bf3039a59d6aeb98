package client

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofish2020/easyclient/redis/command"
	"github.com/gofish2020/easyclient/tool/tcpserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSync(t *testing.T, opts Options) (*RedisConnection, *SyncConnection) {
	conn, err := Dial(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		if !conn.Handler().IsClosed() {
			conn.Close()
		}
	})
	return conn, NewSyncConnection(conn, opts.Timeout)
}

func TestConnectionCommands(t *testing.T) {
	s := newTestServer(t)
	conn, redis := dialSync(t, testOptions(s.Addr()))
	assert.True(t, conn.IsOpen())

	pong, err := redis.Ping()
	require.NoError(t, err)
	assert.Equal(t, "PONG", pong)

	echo, err := redis.Echo("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", echo)

	// strings
	ok, err := redis.Set("key", "value")
	require.NoError(t, err)
	assert.Equal(t, "OK", ok)

	value, err := redis.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	value, err = redis.Get("missing")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	n, err := redis.Append("key", "!")
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	n, err = redis.StrLen("key")
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	n, err = redis.Incr("counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = redis.IncrBy("counter", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	_, err = redis.MSet(map[string]string{"m1": "1", "m2": "2"})
	require.NoError(t, err)
	values, err := redis.MGet("m1", "missing", "m2")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "", "2"}, values)

	_, err = redis.SetEx("expiring", 100, "v")
	require.NoError(t, err)
	ttl, err := redis.TTL("expiring")
	require.NoError(t, err)
	assert.Equal(t, int64(100), ttl)

	// keys
	exists, err := redis.Exists("key")
	require.NoError(t, err)
	assert.True(t, exists)

	expired, err := redis.Expire("key", 10)
	require.NoError(t, err)
	assert.True(t, expired)

	typ, err := redis.Type("key")
	require.NoError(t, err)
	assert.Equal(t, "string", typ)

	keys, err := redis.Keys("m*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"m1", "m2"}, keys)

	n, err = redis.Del("m1", "m2", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// 服务端错误
	_, err = redis.LPush("key", "x")
	assert.ErrorContains(t, err, "WRONGTYPE")
}

func TestConnectionCollections(t *testing.T) {
	s := newTestServer(t)
	_, redis := dialSync(t, testOptions(s.Addr()))

	// hashes
	added, err := redis.HSet("hash", "f1", "v1")
	require.NoError(t, err)
	assert.True(t, added)
	redis.HSet("hash", "f2", "v2")

	hash, err := redis.HGetAll("hash")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1", "f2": "v2"}, hash)

	field, err := redis.HGet("hash", "f1")
	require.NoError(t, err)
	assert.Equal(t, "v1", field)

	exists, err := redis.HExists("hash", "f3")
	require.NoError(t, err)
	assert.False(t, exists)

	fields, err := redis.HKeys("hash")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"f1", "f2"}, fields)

	n, err := redis.HIncrBy("hash", "num", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	n, err = redis.HDel("hash", "f1", "num")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = redis.HLen("hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// lists
	n, err = redis.RPush("list", "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	redis.LPush("list", "z")

	items, err := redis.LRange("list", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "b", "c"}, items)

	item, err := redis.LPop("list")
	require.NoError(t, err)
	assert.Equal(t, "z", item)
	item, err = redis.RPop("list")
	require.NoError(t, err)
	assert.Equal(t, "c", item)

	n, err = redis.LLen("list")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// sets
	n, err = redis.SAdd("set", "a", "b", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	members, err := redis.SMembers("set")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)

	isMember, err := redis.SIsMember("set", "c")
	require.NoError(t, err)
	assert.False(t, isMember)

	// sorted sets
	n, err = redis.ZAdd("zset", 1.5, "one")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	redis.ZAdd("zset", 3, "three")

	score, err := redis.ZScore("zset", "one")
	require.NoError(t, err)
	assert.Equal(t, 1.5, score)

	ranged, err := redis.ZRange("zset", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three"}, ranged)

	n, err = redis.ZCard("zset")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// server
	size, err := redis.DBSize()
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	_, err = redis.FlushDB()
	require.NoError(t, err)
	size, err = redis.DBSize()
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestAsyncPipeline(t *testing.T) {
	s := newTestServer(t)
	conn, _ := dialSync(t, testOptions(s.Addr()))

	var cmds []*command.Command[int64]
	for i := 0; i < 100; i++ {
		cmd, err := conn.Incr("counter")
		require.NoError(t, err)
		cmds = append(cmds, cmd)
	}
	for i, cmd := range cmds {
		value, err := cmd.GetWithTimeout(time.Second)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), value)
	}
}

func TestConcurrentCallers(t *testing.T) {
	s := newTestServer(t)
	_, redis := dialSync(t, testOptions(s.Addr()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := redis.Incr("counter")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	value, err := redis.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, "400", value)
}

func TestSyncTransaction(t *testing.T) {
	s := newTestServer(t)
	conn, redis := dialSync(t, testOptions(s.Addr()))

	ok, err := redis.Multi()
	require.NoError(t, err)
	assert.Equal(t, "OK", ok)
	assert.True(t, conn.IsMulti())

	// 事务中的命令直接返回零值
	ok, err = redis.Set("key", "value")
	require.NoError(t, err)
	assert.Equal(t, "", ok)
	value, err := redis.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	results, err := redis.Exec()
	require.NoError(t, err)
	assert.Equal(t, []any{"OK", "value"}, results)
	assert.False(t, conn.IsMulti())

	value, err = redis.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)
}

func TestTransactionMixedResults(t *testing.T) {
	s := newTestServer(t)
	_, redis := dialSync(t, testOptions(s.Addr()))

	redis.Multi()
	redis.Set("one", "1")
	redis.Set("two", "2")
	redis.MGet("one", "two")
	redis.LLen("key")
	results, err := redis.Exec()
	require.NoError(t, err)
	assert.Equal(t, []any{"OK", "OK", []any{"1", "2"}, int64(0)}, results)
}

func TestErrorInMulti(t *testing.T) {
	s := newTestServer(t)
	conn, redis := dialSync(t, testOptions(s.Addr()))

	redis.Multi()
	set, _ := conn.Set("key", "value")
	lpop, _ := conn.LPop("key")
	get, _ := conn.Get("key")
	results, err := redis.Exec()
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "OK", results[0])
	assert.IsType(t, command.RedisError(""), results[1])
	assert.Equal(t, "value", results[2])

	// 每个命令也拿到自己的结果
	value, err := set.Get()
	require.NoError(t, err)
	assert.Equal(t, "OK", value)
	lpop.Get()
	assert.ErrorContains(t, lpop.Error(), "WRONGTYPE")
	value, _ = get.Get()
	assert.Equal(t, "value", value)
}

func TestDiscard(t *testing.T) {
	s := newTestServer(t)
	conn, redis := dialSync(t, testOptions(s.Addr()))

	redis.Multi()
	set, err := conn.Set("key", "value")
	require.NoError(t, err)
	ok, err := redis.Discard()
	require.NoError(t, err)
	assert.Equal(t, "OK", ok)

	_, err = set.Get()
	assert.ErrorIs(t, err, command.ErrDiscarded)

	value, err := redis.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestWatch(t *testing.T) {
	s := newTestServer(t)
	opts := testOptions(s.Addr())
	_, redis := dialSync(t, opts)
	_, redis2 := dialSync(t, opts)

	ok, err := redis.Watch("key")
	require.NoError(t, err)
	assert.Equal(t, "OK", ok)

	redis2.Set("key", "changed")

	redis.Multi()
	redis.Append("key", "foo")
	results, err := redis.Exec()
	require.NoError(t, err)
	assert.Empty(t, results)

	ok, err = redis.Unwatch()
	require.NoError(t, err)
	assert.Equal(t, "OK", ok)
}

func TestExecWithoutMultiSurfacesServerError(t *testing.T) {
	s := newTestServer(t)
	_, redis := dialSync(t, testOptions(s.Addr()))

	_, err := redis.Exec()
	assert.ErrorContains(t, err, "EXEC without MULTI")
	_, err = redis.Discard()
	assert.ErrorContains(t, err, "DISCARD without MULTI")
}

func TestSelectAndAuth(t *testing.T) {
	s := newTestServer(t)
	s.RequireAuth("secret")

	opts := testOptions(s.Addr())
	unauthed, err := Dial(context.Background(), opts)
	require.NoError(t, err) // 没有握手命令
	_, err = NewSyncConnection(unauthed, opts.Timeout).Ping()
	assert.ErrorContains(t, err, "NOAUTH")
	require.NoError(t, unauthed.Close())

	opts.Password = "wrong"
	_, err = Dial(context.Background(), opts)
	assert.Error(t, err)

	opts.Password = "secret"
	opts.Database = 2
	conn, redis := dialSync(t, opts)
	_, err = redis.Set("key", "value")
	require.NoError(t, err)
	value, err := s.DB(2).Get("key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	_, err = redis.Select(3)
	require.NoError(t, err)
	assert.Equal(t, 3, conn.Options().Database)

	// 服务端拒绝的db不记录
	_, err = redis.Select(-1)
	assert.Error(t, err)
	assert.Equal(t, 3, conn.Options().Database)
}

func TestReconnect(t *testing.T) {
	s := newTestServer(t)
	opts := testOptions(s.Addr())
	opts.AutoReconnect = true
	opts.ReconnectAttempts = 50
	conn, redis := dialSync(t, opts)

	_, err := redis.Select(2)
	require.NoError(t, err)

	s.Close()
	assert.Eventually(t, func() bool { return !conn.IsOpen() }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, conn.Handler().IsClosed())

	// 断开期间命令失败
	_, err = redis.Ping()
	assert.Error(t, err)

	require.NoError(t, s.Restart())
	assert.Eventually(t, conn.IsOpen, 5*time.Second, 10*time.Millisecond)

	_, err = redis.Set("key", "value")
	require.NoError(t, err)
	// 重连后重新选择db
	value, err := s.DB(2).Get("key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)
}

func TestReconnectGiveUp(t *testing.T) {
	s := newTestServer(t)
	opts := testOptions(s.Addr())
	opts.AutoReconnect = true
	opts.ReconnectAttempts = 1
	conn, _ := dialSync(t, opts)

	var fired sync.WaitGroup
	fired.Add(1)
	require.NoError(t, conn.Handler().AddListener("test", fired.Done))

	s.Close()
	fired.Wait()
	assert.True(t, conn.Handler().IsClosed())
}

func TestQuit(t *testing.T) {
	s := newTestServer(t)
	opts := testOptions(s.Addr())
	opts.AutoReconnect = true
	conn, redis := dialSync(t, opts)

	ok, err := redis.Quit()
	require.NoError(t, err)
	assert.Equal(t, "OK", ok)

	// 服务端关闭连接后不再重连
	assert.Eventually(t, conn.Handler().IsClosed, 2*time.Second, 10*time.Millisecond)
	_, err = redis.Ping()
	assert.ErrorIs(t, err, command.ErrConnectionClosed)
}

func TestQuitDiscardedInMulti(t *testing.T) {
	s := newTestServer(t)
	opts := testOptions(s.Addr())
	opts.AutoReconnect = true
	opts.ReconnectAttempts = 50
	conn, redis := dialSync(t, opts)

	_, err := redis.Multi()
	require.NoError(t, err)
	quit, err := conn.Quit()
	require.NoError(t, err)
	_, err = redis.Discard()
	require.NoError(t, err)
	assert.ErrorIs(t, quit.Error(), command.ErrDiscarded)
	assert.False(t, conn.endpoint.noReconnect.Load())

	// QUIT 没有执行，断开后仍然重连
	s.Close()
	assert.Eventually(t, func() bool { return !conn.IsOpen() }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Restart())
	assert.Eventually(t, conn.IsOpen, 5*time.Second, 10*time.Millisecond)
	assert.False(t, conn.Handler().IsClosed())
}

func TestQuitNotDispatched(t *testing.T) {
	s := newTestServer(t)
	conn, _ := dialSync(t, testOptions(s.Addr()))
	require.NoError(t, conn.Close())

	_, err := conn.Quit()
	assert.ErrorIs(t, err, command.ErrConnectionClosed)
	assert.False(t, conn.endpoint.noReconnect.Load())
}

func TestRejectedAuthKeepsPassword(t *testing.T) {
	s := newTestServer(t)
	s.RequireAuth("secret")
	opts := testOptions(s.Addr())
	opts.Password = "secret"
	opts.AutoReconnect = true
	opts.ReconnectAttempts = 50
	conn, redis := dialSync(t, opts)

	_, err := redis.Auth("wrong")
	assert.Error(t, err)
	assert.Equal(t, "secret", conn.Options().Password)

	// 服务端拒绝的密码不用于重连
	s.Close()
	assert.Eventually(t, func() bool { return !conn.IsOpen() }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Restart())
	assert.Eventually(t, conn.IsOpen, 5*time.Second, 10*time.Millisecond)
	assert.False(t, conn.Handler().IsClosed())

	// 认证成功的新密码用于重连
	s.RequireAuth("rotated")
	_, err = redis.Auth("rotated")
	require.NoError(t, err)
	assert.Equal(t, "rotated", conn.Options().Password)

	s.Close()
	assert.Eventually(t, func() bool { return !conn.IsOpen() }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Restart())
	assert.Eventually(t, conn.IsOpen, 5*time.Second, 10*time.Millisecond)
	_, err = redis.Ping()
	require.NoError(t, err)
}

// 按脚本处理连接的服务端
func newScriptedServer(t *testing.T, handler tcpserver.HandlerFunc) *tcpserver.TCPServer {
	server, err := tcpserver.Listen(tcpserver.TCPConfig{}, handler)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	return server
}

func TestCloseFailsInflight(t *testing.T) {
	received := make(chan struct{})
	closeConn := make(chan struct{})
	server := newScriptedServer(t, func(_ context.Context, conn net.Conn) {
		conn.Read(make([]byte, 64))
		close(received)
		<-closeConn
	})

	conn, err := Dial(context.Background(), testOptions(server.Addr()))
	require.NoError(t, err)

	ping, err := conn.Ping()
	require.NoError(t, err)
	<-received
	assert.False(t, ping.IsDone())

	// 服务端断开：在途命令失败，连接关闭（未开启重连）
	close(closeConn)
	_, err = ping.Get()
	assert.ErrorIs(t, err, command.ErrConnectionClosed)
	assert.Eventually(t, conn.Handler().IsClosed, time.Second, 10*time.Millisecond)
}

func TestUnsolicitedReplyClosesConnection(t *testing.T) {
	server := newScriptedServer(t, func(_ context.Context, conn net.Conn) {
		conn.Read(make([]byte, 64))
		// 多返回一个回复
		conn.Write([]byte("+PONG\r\n+OK\r\n"))
		io.Copy(io.Discard, conn)
	})

	conn, redis := dialSync(t, testOptions(server.Addr()))
	pong, err := redis.Ping()
	require.NoError(t, err)
	assert.Equal(t, "PONG", pong)

	assert.Eventually(t, conn.Handler().IsClosed, time.Second, 10*time.Millisecond)
}

func TestUserCloseFailsPending(t *testing.T) {
	server := newScriptedServer(t, func(_ context.Context, conn net.Conn) {
		io.Copy(io.Discard, conn) // 从不回复
	})

	conn, err := Dial(context.Background(), testOptions(server.Addr()))
	require.NoError(t, err)

	conn.Multi()
	queued, err := conn.Set("key", "value")
	require.NoError(t, err)
	get, err := conn.Get("key")
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close()) // 重复关闭

	_, err = get.Get()
	assert.ErrorIs(t, err, command.ErrConnectionClosed)
	_, err = queued.Get()
	assert.ErrorIs(t, err, command.ErrConnectionClosed)

	_, err = conn.Ping()
	assert.ErrorIs(t, err, command.ErrConnectionClosed)
}

func TestHandshakeTimeout(t *testing.T) {
	server := newScriptedServer(t, func(_ context.Context, conn net.Conn) {
		io.Copy(io.Discard, conn) // AUTH 没有回复
	})

	opts := testOptions(server.Addr())
	opts.Password = "secret"
	opts.Timeout = 50 * time.Millisecond
	_, err := Dial(context.Background(), opts)
	assert.ErrorIs(t, err, command.ErrInterrupted)
	assert.Eventually(t, func() bool { return server.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestAbortedSocketReadIsExpected(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	e := newEndpoint(nil, nil)
	defer e.cancel()
	att := &attachment{nc: local}

	assert.True(t, e.expectedReadError(att, io.EOF))
	assert.False(t, e.expectedReadError(att, io.ErrUnexpectedEOF))

	// 本端主动关闭后读出错
	att.shutdown()
	_, err := local.Read(make([]byte, 1))
	require.Error(t, err)
	assert.True(t, e.expectedReadError(att, err))
}
