package store

// IDPool hands out positive integer ids and recycles released ones.
// Each owner (usually a world) keeps its own pool so ids never leak between
// independent simulations.
type IDPool struct {
	nextID int
	free   []int
	inUse  map[int]struct{}
}

// NewIDPool returns an empty pool whose first id is 1.
func NewIDPool() *IDPool {
	return &IDPool{inUse: make(map[int]struct{})}
}

// Acquire returns a free id, preferring the most recently released one.
func (p *IDPool) Acquire() int {
	if p.inUse == nil {
		p.inUse = make(map[int]struct{})
	}
	var id int
	if len(p.free) > 0 {
		id = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
	} else {
		p.nextID++
		id = p.nextID
	}
	p.inUse[id] = struct{}{}
	return id
}

// Release returns id to the pool. Releasing an id that is not in use is a
// no-op and reports false.
func (p *IDPool) Release(id int) bool {
	if _, ok := p.inUse[id]; !ok {
		return false
	}
	delete(p.inUse, id)
	p.free = append(p.free, id)
	return true
}

// InUse reports whether id is currently allocated.
func (p *IDPool) InUse(id int) bool {
	_, ok := p.inUse[id]
	return ok
}

// Len returns the number of allocated ids.
func (p *IDPool) Len() int {
	return len(p.inUse)
}
