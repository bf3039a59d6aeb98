package list

// 双向链表，作为FIFO队列使用：尾部追加，头部弹出

type Consumer[T any] func(i int, val T) bool

type LinkedList[T any] struct {
	first *node[T]
	last  *node[T]

	size int
}

type node[T any] struct {
	pre  *node[T]
	next *node[T]
	val  T
}

// Add push new node to the tail
func (l *LinkedList[T]) Add(val T) {
	n := &node[T]{val: val}

	if l.last == nil { // 空链表
		l.first = n
		l.last = n
	} else {
		n.pre = l.last
		l.last.next = n
		l.last = n
	}
	l.size++
}

// 查看头部节点（不删除）
func (l *LinkedList[T]) First() (val T, ok bool) {
	if l.first == nil {
		return val, false
	}
	return l.first.val, true
}

// 弹出头部节点
func (l *LinkedList[T]) PopFirst() (val T, ok bool) {
	n := l.first
	if n == nil {
		return val, false
	}
	l.delNode(n)
	return n.val, true
}

func (l *LinkedList[T]) delNode(n *node[T]) {
	pre := n.pre
	next := n.next

	if pre != nil {
		pre.next = next
	} else { // 说明n就是第一个节点
		l.first = next
	}

	if next != nil {
		next.pre = pre
	} else { // 说明n就是最后一个节点
		l.last = pre
	}

	// for gc
	n.pre = nil
	n.next = nil

	l.size--
}

// 按插入顺序取出所有元素，并清空链表
func (l *LinkedList[T]) Drain() []T {
	result := make([]T, 0, l.size)
	for n := l.first; n != nil; n = n.next {
		result = append(result, n.val)
	}
	l.first = nil
	l.last = nil
	l.size = 0
	return result
}

// 遍历链表中的元素
func (l *LinkedList[T]) ForEach(consumer Consumer[T]) {
	i := 0
	for n := l.first; n != nil; n = n.next {
		if !consumer(i, n.val) {
			break
		}
		i++
	}
}

// 链表的长度
func (l *LinkedList[T]) Len() int {
	return l.size
}

// 构建新链表
func NewLinkedList[T any]() *LinkedList[T] {
	return &LinkedList[T]{}
}
