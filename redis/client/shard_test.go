package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardedPool(t *testing.T) {
	s1 := newTestServer(t)
	s2 := newTestServer(t)
	servers := map[string]interface{ Keys() []string }{s1.Addr(): s1, s2.Addr(): s2}

	c := NewRedisClient(testOptions(s1.Addr()))
	defer c.Shutdown()

	sp, err := c.ShardedPool(s1.Addr(), s2.Addr(), s1.Addr())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{s1.Addr(), s2.Addr()}, sp.Nodes())
	assert.Equal(t, 2, c.Open())

	expected := map[string]int{}
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("key:%d", i)
		pc, err := sp.Allocate(context.Background(), key)
		require.NoError(t, err)
		_, err = NewSyncConnection(pc, time.Second).Set(key, "v")
		require.NoError(t, err)
		require.NoError(t, pc.Close())
		expected[sp.Addr(key)]++
	}
	for addr, server := range servers {
		assert.Len(t, server.Keys(), expected[addr], addr)
	}

	// hash tag 相同的 key 在同一个节点
	assert.Equal(t, sp.Addr("{user:1}:name"), sp.Addr("{user:1}:age"))

	require.NoError(t, sp.Close())
	assert.Equal(t, 0, c.Open())
}

func TestShardedPoolNoAddress(t *testing.T) {
	c := NewRedisClient(DefaultOptions())
	defer c.Shutdown()
	_, err := c.ShardedPool()
	assert.Error(t, err)
	_, err = c.ShardedPool("")
	assert.Error(t, err)
}
