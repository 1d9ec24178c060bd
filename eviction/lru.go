package eviction

import "container/list"

// lru keeps keys in a list ordered from most (front) to least (back) recently used.
type lru struct {
	order *list.List
	elems map[string]*list.Element
}

func newLRU() *lru {
	return &lru{
		order: list.New(),
		elems: make(map[string]*list.Element),
	}
}

func (l *lru) OnGet(k string) {
	if el, ok := l.elems[k]; ok {
		l.order.MoveToFront(el)
	}
}

// OnPut treats an overwrite as a use.
func (l *lru) OnPut(k string) {
	if el, ok := l.elems[k]; ok {
		l.order.MoveToFront(el)
		return
	}
	l.elems[k] = l.order.PushFront(k)
}

func (l *lru) Remove(k string) {
	if el, ok := l.elems[k]; ok {
		l.order.Remove(el)
		delete(l.elems, k)
	}
}

func (l *lru) Evict() string {
	el := l.order.Back()
	if el == nil {
		return ""
	}
	k := l.order.Remove(el).(string)
	delete(l.elems, k)
	return k
}

func (l *lru) Len() int { return len(l.elems) }
