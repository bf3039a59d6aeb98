package consistenthash

import (
	"hash/crc32"
	"slices"
	"sort"
	"strconv"
	"strings"
)

type HashFunc func(data []byte) uint32

/*
一致性hash：key -> 节点地址
每个节点生成 replicas 个虚拟节点；只读（构造之后不再修改），可以并发调用 Get
*/
type Map struct {
	hashFunc  HashFunc          // 计算hash函数
	replicas  int               // 每个节点的虚拟节点数量
	hashValue []uint32          // 排序后的hash值
	hashMap   map[uint32]string // hash值映射的真实节点
	nodes     []string
}

func New(replicas int, fn HashFunc, nodes ...string) *Map {
	if replicas <= 0 {
		replicas = 1
	}
	m := &Map{
		replicas: replicas,
		hashFunc: fn,
		hashMap:  make(map[uint32]string),
	}
	if m.hashFunc == nil {
		m.hashFunc = crc32.ChecksumIEEE
	}
	for _, node := range nodes {
		// 忽略空地址和重复地址
		if node == "" || slices.Contains(m.nodes, node) {
			continue
		}
		m.nodes = append(m.nodes, node)
		for i := 0; i < m.replicas; i++ {
			hash := m.hashFunc([]byte(strconv.Itoa(i) + node))
			if _, ok := m.hashMap[hash]; ok { // 冲突时保留先加入的节点
				continue
			}
			m.hashValue = append(m.hashValue, hash)
			m.hashMap[hash] = node
		}
	}
	slices.Sort(m.hashValue)
	return m
}

func (m *Map) IsEmpty() bool {
	return len(m.hashValue) == 0
}

func (m *Map) Nodes() []string {
	return slices.Clone(m.nodes)
}

// 支持 hash tag，例如 user:{1000}:name 和 user:{1000}:age 落在同一个节点
func PartitionKey(key string) string {
	beg := strings.Index(key, "{")
	if beg == -1 {
		return key
	}
	end := strings.Index(key[beg+1:], "}")
	if end <= 0 {
		return key
	}
	return key[beg+1 : beg+1+end]
}

// key 所在的节点
func (m *Map) Get(key string) string {
	if m.IsEmpty() {
		return ""
	}
	hash := m.hashFunc([]byte(PartitionKey(key)))

	// 第一个大于or等于hash值的虚拟节点，找不到时回到第0个
	idx := sort.Search(len(m.hashValue), func(i int) bool { return m.hashValue[i] >= hash })
	if idx == len(m.hashValue) {
		idx = 0
	}
	return m.hashMap[m.hashValue[idx]]
}
