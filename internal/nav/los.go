package nav

// LineOfSight reports whether the straight 3D line between from and to
// passes only through non-solid cells. Endpoints themselves are not
// checked, so a sighting cell or an embedded target block does not block
// its own visibility.
func LineOfSight(w WorldQuery, from, to Coord) bool {
	it := newLineIterator(from, to)
	for it.next() {
		c := it.current()
		if c == from || c == to {
			continue
		}
		if w.IsSolid(c) {
			return false
		}
	}
	return true
}

// lineIterator steps through grid cells along a 3D Bresenham line.
type lineIterator struct {
	cur, target Coord
	dx, dy, dz  int32
	sx, sy, sz  int32
	errA, errB  int32
	dominant    int // 0=X, 1=Y, 2=Z
	started     bool
}

func newLineIterator(from, to Coord) *lineIterator {
	it := &lineIterator{cur: from, target: to}

	it.dx = abs32(to.X - from.X)
	it.dy = abs32(to.Y - from.Y)
	it.dz = abs32(to.Z - from.Z)

	it.sx, it.sy, it.sz = 1, 1, 1
	if to.X < from.X {
		it.sx = -1
	}
	if to.Y < from.Y {
		it.sy = -1
	}
	if to.Z < from.Z {
		it.sz = -1
	}

	switch {
	case it.dx >= it.dy && it.dx >= it.dz:
		it.dominant = 0
		it.errA, it.errB = it.dx/2, it.dx/2
	case it.dy >= it.dx && it.dy >= it.dz:
		it.dominant = 1
		it.errA, it.errB = it.dy/2, it.dy/2
	default:
		it.dominant = 2
		it.errA, it.errB = it.dz/2, it.dz/2
	}
	return it
}

// next advances the iterator. Returns false once the target was consumed.
func (it *lineIterator) next() bool {
	if !it.started {
		it.started = true
		return true
	}
	if it.cur == it.target {
		return false
	}

	switch it.dominant {
	case 0: // X-dominant
		it.cur.X += it.sx
		it.errA += it.dy
		if it.errA >= it.dx {
			it.cur.Y += it.sy
			it.errA -= it.dx
		}
		it.errB += it.dz
		if it.errB >= it.dx {
			it.cur.Z += it.sz
			it.errB -= it.dx
		}

	case 1: // Y-dominant
		it.cur.Y += it.sy
		it.errA += it.dx
		if it.errA >= it.dy {
			it.cur.X += it.sx
			it.errA -= it.dy
		}
		it.errB += it.dz
		if it.errB >= it.dy {
			it.cur.Z += it.sz
			it.errB -= it.dy
		}

	case 2: // Z-dominant
		it.cur.Z += it.sz
		it.errA += it.dx
		if it.errA >= it.dz {
			it.cur.X += it.sx
			it.errA -= it.dz
		}
		it.errB += it.dy
		if it.errB >= it.dz {
			it.cur.Y += it.sy
			it.errB -= it.dz
		}
	}
	return true
}

func (it *lineIterator) current() Coord { return it.cur }
