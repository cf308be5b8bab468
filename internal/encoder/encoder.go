// Package encoder recovers absolute shaft position from a 16-bit
// quadrature counter.
package encoder

import "github.com/mecha04/motorlab/internal/hal"

// Reader accumulates signed 16-bit deltas so the hardware counter can wrap
// in either direction between reads. Reads must happen often enough that
// the shaft moves less than half the counter range between them; at the
// rig's speeds even the slowest task period is far inside that bound.
type Reader struct {
	q    hal.Quadrature
	last uint16
	pos  int64
}

func New(q hal.Quadrature) *Reader {
	return &Reader{q: q, last: q.Count()}
}

// Read returns the absolute position in counts.
func (r *Reader) Read() int64 {
	now := r.q.Count()
	delta := int16(now - r.last)
	r.last = now
	r.pos += int64(delta)
	return r.pos
}

// Zero rebases the position to zero at the current shaft angle.
func (r *Reader) Zero() {
	r.q.Zero()
	r.last = r.q.Count()
	r.pos = 0
}
