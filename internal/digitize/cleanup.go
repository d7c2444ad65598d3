package digitize

import "math"

// VerticalLines returns a mask of the foreground runs in m that are at least
// minRun pixels tall.
func VerticalLines(m *Mask, minRun int) *Mask {
	lines := NewMask(m.W, m.H)
	if minRun < 1 {
		minRun = 1
	}
	for x := 0; x < m.W; x++ {
		start := -1
		for y := 0; y <= m.H; y++ {
			on := y < m.H && m.On(x, y)
			if on && start < 0 {
				start = y
			}
			if !on && start >= 0 {
				if y-start >= minRun {
					for r := start; r < y; r++ {
						lines.Set(x, r, true)
					}
				}
				start = -1
			}
		}
	}
	return lines
}

// RemoveGridlines clears full-height vertical runs from m in place, but only
// when they make up at least minRatio of the foreground. A lone vertical
// stroke below that ratio is more likely a steep curve segment. It returns
// whether anything was removed.
func RemoveGridlines(m *Mask, minRunFrac, minRatio float64) bool {
	total := m.Count()
	if total == 0 {
		return false
	}
	lines := VerticalLines(m, int(math.Ceil(minRunFrac*float64(m.H))))
	n := lines.Count()
	if n == 0 || float64(n)/float64(total) < minRatio {
		return false
	}
	for i, v := range lines.Pix {
		if v != 0 {
			m.Pix[i] = 0
		}
	}
	return true
}

// ClearMargins zeroes a band of width margin along the top, bottom and right
// edges of m in place.
func ClearMargins(m *Mask, margin int) {
	if margin <= 0 {
		return
	}
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if y < margin || y >= m.H-margin || x >= m.W-margin {
				m.Pix[y*m.W+x] = 0
			}
		}
	}
}

// RemoveComponents deletes, in place, 8-connected components smaller than
// minArea and any component touching the top, right or bottom border. It
// returns the number of components removed.
func RemoveComponents(m *Mask, minArea int) int {
	labels := make([]int32, len(m.Pix))
	var stack, members []int
	removed := 0
	next := int32(0)

	for start, v := range m.Pix {
		if v == 0 || labels[start] != 0 {
			continue
		}
		next++
		labels[start] = next
		stack = append(stack[:0], start)
		members = members[:0]
		touches := false

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, i)

			x, y := i%m.W, i/m.W
			if y == 0 || y == m.H-1 || x == m.W-1 {
				touches = true
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= m.W || ny >= m.H {
						continue
					}
					j := ny*m.W + nx
					if m.Pix[j] != 0 && labels[j] == 0 {
						labels[j] = next
						stack = append(stack, j)
					}
				}
			}
		}

		if touches || len(members) < minArea {
			for _, i := range members {
				m.Pix[i] = 0
			}
			removed++
		}
	}
	return removed
}
