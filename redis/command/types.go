package command

// 命令名（协议中的命令名，区分大小写）
type CommandType string

func (t CommandType) String() string {
	return string(t)
}

// connection
const (
	AUTH   CommandType = "AUTH"
	ECHO   CommandType = "ECHO"
	PING   CommandType = "PING"
	QUIT   CommandType = "QUIT"
	SELECT CommandType = "SELECT"
	CLIENT CommandType = "CLIENT"
)

// keys
const (
	DEL    CommandType = "DEL"
	EXISTS CommandType = "EXISTS"
	EXPIRE CommandType = "EXPIRE"
	TTL    CommandType = "TTL"
	TYPE   CommandType = "TYPE"
	KEYS   CommandType = "KEYS"
)

// strings
const (
	GET    CommandType = "GET"
	SET    CommandType = "SET"
	SETEX  CommandType = "SETEX"
	INCR   CommandType = "INCR"
	INCRBY CommandType = "INCRBY"
	APPEND CommandType = "APPEND"
	MGET   CommandType = "MGET"
	MSET   CommandType = "MSET"
	STRLEN CommandType = "STRLEN"
)

// hashes
const (
	HSET    CommandType = "HSET"
	HGET    CommandType = "HGET"
	HGETALL CommandType = "HGETALL"
	HDEL    CommandType = "HDEL"
	HEXISTS CommandType = "HEXISTS"
	HKEYS   CommandType = "HKEYS"
	HLEN    CommandType = "HLEN"
	HINCRBY CommandType = "HINCRBY"
)

// lists
const (
	LPUSH  CommandType = "LPUSH"
	RPUSH  CommandType = "RPUSH"
	LPOP   CommandType = "LPOP"
	RPOP   CommandType = "RPOP"
	LRANGE CommandType = "LRANGE"
	LLEN   CommandType = "LLEN"
)

// sets
const (
	SADD      CommandType = "SADD"
	SMEMBERS  CommandType = "SMEMBERS"
	SISMEMBER CommandType = "SISMEMBER"
)

// sorted sets
const (
	ZADD   CommandType = "ZADD"
	ZSCORE CommandType = "ZSCORE"
	ZRANGE CommandType = "ZRANGE"
	ZCARD  CommandType = "ZCARD"
)

// transactions
const (
	MULTI   CommandType = "MULTI"
	EXEC    CommandType = "EXEC"
	DISCARD CommandType = "DISCARD"
	WATCH   CommandType = "WATCH"
	UNWATCH CommandType = "UNWATCH"
)

// server
const (
	DBSIZE  CommandType = "DBSIZE"
	FLUSHDB CommandType = "FLUSHDB"
	INFO    CommandType = "INFO"
)
