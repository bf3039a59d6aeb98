package client

import (
	"context"

	"github.com/gofish2020/easyclient/tool/consistenthash"
	"github.com/pkg/errors"
)

// 每个节点的虚拟节点数量
const shardReplicas = 100

/*
ShardedPool 按 key 把连接分散到多个服务端（静态节点列表，一致性hash，支持 hash tag）
每个节点使用 RedisClient 按地址共享的连接池
*/
type ShardedPool struct {
	client *RedisClient
	ring   *consistenthash.Map
}

func (c *RedisClient) ShardedPool(addrs ...string) (*ShardedPool, error) {
	ring := consistenthash.New(shardReplicas, nil, addrs...)
	if ring.IsEmpty() {
		return nil, errors.New("sharded pool: no address")
	}
	for _, addr := range ring.Nodes() {
		if _, err := c.Pool(addr); err != nil {
			return nil, err
		}
	}
	return &ShardedPool{client: c, ring: ring}, nil
}

// key 所在的节点
func (sp *ShardedPool) Addr(key string) string {
	return sp.ring.Get(key)
}

func (sp *ShardedPool) Nodes() []string {
	return sp.ring.Nodes()
}

// 借出 key 所在节点的连接；同一个连接上的命令应当只访问同一个节点的 key
func (sp *ShardedPool) Allocate(ctx context.Context, key string) (*PooledConnection, error) {
	p, err := sp.client.Pool(sp.Addr(key))
	if err != nil {
		return nil, err
	}
	return p.Allocate(ctx)
}

// 关闭所有节点的连接池
func (sp *ShardedPool) Close() error {
	for _, addr := range sp.ring.Nodes() {
		if p, ok := sp.client.pools.Load(addr); ok {
			p.Close()
		}
	}
	return nil
}
