package digitize

// Mask is a binary image the size of the plot crop. Foreground pixels are
// 255, background 0.
type Mask struct {
	W, H int
	Pix  []uint8
}

// NewMask returns an empty mask.
func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, Pix: make([]uint8, w*h)}
}

func (m *Mask) On(x, y int) bool { return m.Pix[y*m.W+x] != 0 }

func (m *Mask) Set(x, y int, on bool) {
	if on {
		m.Pix[y*m.W+x] = 255
	} else {
		m.Pix[y*m.W+x] = 0
	}
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{W: m.W, H: m.H, Pix: make([]uint8, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// ColumnRows returns the foreground row indexes of column x, top to bottom.
func (m *Mask) ColumnRows(x int) []int {
	var rows []int
	for y := 0; y < m.H; y++ {
		if m.On(x, y) {
			rows = append(rows, y)
		}
	}
	return rows
}

// CoveragePct is the percentage of columns holding at least one foreground
// pixel.
func (m *Mask) CoveragePct() float64 {
	if m.W == 0 {
		return 0
	}
	covered := 0
	for x := 0; x < m.W; x++ {
		for y := 0; y < m.H; y++ {
			if m.On(x, y) {
				covered++
				break
			}
		}
	}
	return 100 * float64(covered) / float64(m.W)
}

// Dilate grows the foreground with a size×size square element. Pixels
// outside the mask are ignored.
func (m *Mask) Dilate(size int) *Mask {
	return m.morph(size, false)
}

// Erode shrinks the foreground with a size×size square element. Pixels
// outside the mask are ignored, so borders do not erode.
func (m *Mask) Erode(size int) *Mask {
	return m.morph(size, true)
}

// Open is erosion followed by dilation; it removes specks smaller than the
// element.
func (m *Mask) Open(size int) *Mask {
	return m.Erode(size).Dilate(size)
}

// Close is dilation followed by erosion; it fills gaps smaller than the
// element.
func (m *Mask) Close(size int) *Mask {
	return m.Dilate(size).Erode(size)
}

// morph applies a separable min/max filter: rows first, then columns.
func (m *Mask) morph(size int, erode bool) *Mask {
	if size <= 1 {
		return m.Clone()
	}
	lo := (size - 1) / 2
	hi := size - 1 - lo

	tmp := NewMask(m.W, m.H)
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			tmp.Set(x, y, windowHit(erode, max(0, x-lo), min(m.W-1, x+hi), func(i int) bool { return m.On(i, y) }))
		}
	}
	out := NewMask(m.W, m.H)
	for x := 0; x < m.W; x++ {
		for y := 0; y < m.H; y++ {
			out.Set(x, y, windowHit(erode, max(0, y-lo), min(m.H-1, y+hi), func(i int) bool { return tmp.On(x, i) }))
		}
	}
	return out
}

// windowHit reports whether all (erode) or any (dilate) of on(from..to) hold.
func windowHit(erode bool, from, to int, on func(int) bool) bool {
	for i := from; i <= to; i++ {
		if on(i) != erode {
			return !erode
		}
	}
	return erode
}
