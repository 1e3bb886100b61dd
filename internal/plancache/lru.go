// Package plancache keeps recently compiled plans keyed by their SQL text.
package plancache

import (
	"container/list"
	"sync"

	"github.com/tuannm99/novaquery/internal/sql/plan"
)

type entry struct {
	sql  string
	node plan.Node
}

// Cache is a fixed-capacity LRU. Plans are immutable, so a cached node is
// shared by every caller that hits it. A zero capacity disables caching.
type Cache struct {
	mu       sync.Mutex
	capacity int
	lruList  *list.List
	items    map[string]*list.Element

	hits, misses uint64
}

func New(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		lruList:  list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (c *Cache) Get(sql string) (plan.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[sql]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.lruList.MoveToFront(elem)
	return elem.Value.(*entry).node, true
}

// Put stores node for sql, evicting the least recently used plan when full.
func (c *Cache) Put(sql string, node plan.Node) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[sql]; ok {
		elem.Value.(*entry).node = node
		c.lruList.MoveToFront(elem)
		return
	}
	c.items[sql] = c.lruList.PushFront(&entry{sql: sql, node: node})
	if c.lruList.Len() > c.capacity {
		back := c.lruList.Back()
		c.lruList.Remove(back)
		delete(c.items, back.Value.(*entry).sql)
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
