package eviction

import "container/list"

// fifo evicts in insertion order. Reads and overwrites do not reorder keys.
type fifo struct {
	queue *list.List
	elems map[string]*list.Element
}

func newFIFO() *fifo {
	return &fifo{
		queue: list.New(),
		elems: make(map[string]*list.Element),
	}
}

func (f *fifo) OnGet(string) {}

func (f *fifo) OnPut(k string) {
	if _, ok := f.elems[k]; ok {
		return
	}
	f.elems[k] = f.queue.PushBack(k)
}

func (f *fifo) Remove(k string) {
	if el, ok := f.elems[k]; ok {
		f.queue.Remove(el)
		delete(f.elems, k)
	}
}

func (f *fifo) Evict() string {
	el := f.queue.Front()
	if el == nil {
		return ""
	}
	k := f.queue.Remove(el).(string)
	delete(f.elems, k)
	return k
}

func (f *fifo) Len() int { return len(f.elems) }
