package graphics

// lruList maintains screenshot eviction order
type lruList struct {
	head  *lruNode
	tail  *lruNode
	nodes map[string]*lruNode
	size  int
}

type lruNode struct {
	hash       string
	prev, next *lruNode
}

func newLRUList() *lruList {
	head := &lruNode{}
	tail := &lruNode{}
	head.next = tail
	tail.prev = head

	return &lruList{
		head:  head,
		tail:  tail,
		nodes: make(map[string]*lruNode),
	}
}

// addToFront adds a hash as the most recently used entry
func (l *lruList) addToFront(hash string) {
	if node, exists := l.nodes[hash]; exists {
		l.unlink(node)
		l.linkFront(node)
		return
	}

	node := &lruNode{hash: hash}
	l.nodes[hash] = node
	l.linkFront(node)
	l.size++
}

// moveToFront refreshes an existing hash's position
func (l *lruList) moveToFront(hash string) {
	if node, exists := l.nodes[hash]; exists {
		l.unlink(node)
		l.linkFront(node)
	}
}

// removeOldest unlinks and returns the least recently used hash
func (l *lruList) removeOldest() string {
	if l.size == 0 {
		return ""
	}

	oldest := l.tail.prev
	l.unlink(oldest)
	delete(l.nodes, oldest.hash)
	l.size--

	return oldest.hash
}

func (l *lruList) linkFront(node *lruNode) {
	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node
}

func (l *lruList) unlink(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
