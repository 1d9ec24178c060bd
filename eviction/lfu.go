package eviction

import "container/list"

// lfuItem is one tracked key and how many times it was served.
type lfuItem struct {
	key  string
	freq int
}

/*
lfu groups keys into per-frequency lists. Within a frequency the list is in
arrival order, so ties are broken by evicting the key that reached that
frequency first.
*/
type lfu struct {
	items   map[string]*list.Element
	buckets map[int]*list.List
	minFreq int
}

func newLFU() *lfu {
	return &lfu{
		items:   make(map[string]*list.Element),
		buckets: make(map[int]*list.List),
	}
}

func (l *lfu) bucket(freq int) *list.List {
	b, ok := l.buckets[freq]
	if !ok {
		b = list.New()
		l.buckets[freq] = b
	}
	return b
}

func (l *lfu) unlink(el *list.Element) *lfuItem {
	it := el.Value.(*lfuItem)
	b := l.buckets[it.freq]
	b.Remove(el)
	if b.Len() == 0 {
		delete(l.buckets, it.freq)
	}
	return it
}

func (l *lfu) OnGet(k string) {
	el, ok := l.items[k]
	if !ok {
		return
	}
	it := l.unlink(el)
	if _, stillThere := l.buckets[it.freq]; !stillThere && l.minFreq == it.freq {
		l.minFreq++
	}
	it.freq++
	l.items[k] = l.bucket(it.freq).PushBack(it)
}

// OnPut registers new keys with frequency 1; an overwrite counts as a read.
func (l *lfu) OnPut(k string) {
	if _, ok := l.items[k]; ok {
		l.OnGet(k)
		return
	}
	l.items[k] = l.bucket(1).PushBack(&lfuItem{key: k, freq: 1})
	l.minFreq = 1
}

func (l *lfu) Remove(k string) {
	el, ok := l.items[k]
	if !ok {
		return
	}
	l.unlink(el)
	delete(l.items, k)
	l.fixMin()
}

func (l *lfu) Evict() string {
	if len(l.items) == 0 {
		return ""
	}
	b, ok := l.buckets[l.minFreq]
	if !ok {
		l.fixMin()
		b = l.buckets[l.minFreq]
	}
	it := l.unlink(b.Front())
	delete(l.items, it.key)
	l.fixMin()
	return it.key
}

func (l *lfu) Len() int { return len(l.items) }

// fixMin recomputes minFreq after a removal emptied its bucket.
func (l *lfu) fixMin() {
	if _, ok := l.buckets[l.minFreq]; ok || len(l.buckets) == 0 {
		return
	}
	first := true
	for f := range l.buckets {
		if first || f < l.minFreq {
			l.minFreq = f
			first = false
		}
	}
}
