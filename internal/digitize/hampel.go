package digitize

import (
	"math"
	"slices"
)

const (
	// madScale converts a median absolute deviation into a normal-consistent
	// standard deviation estimate.
	madScale = 1.4826

	// minMAD floors the deviation scale. Traced rows are quantized to half
	// pixels, so a window of identical rows would otherwise flag a 1px
	// wobble as an outlier.
	minMAD = 0.5
)

// Hampel replaces impulsive outliers with the median of their window. For
// each present value it takes the present values within window/2 columns on
// either side; with fewer than three of them the value is kept, otherwise it
// is replaced by the window median when it deviates from it by more than
// sigma × 1.4826 × max(MAD, 0.5). Missing columns neither contribute nor
// change.
//
// Passes repeat until one changes nothing, so the result is a fixed point:
// smoothing it again returns it unchanged.
func Hampel(in PixelCurve, window int, sigma float64) PixelCurve {
	out, _ := hampelPasses(in, window, sigma)
	return out
}

// hampelPasses runs passes until the curve is stable or len(in)+1 passes
// have run, and reports how many were needed.
func hampelPasses(in PixelCurve, window int, sigma float64) (PixelCurve, int) {
	cur := slices.Clone(in)
	for pass := 1; pass <= len(in)+1; pass++ {
		next, changed := hampelPass(cur, window, sigma)
		cur = next
		if !changed {
			return cur, pass
		}
	}
	return cur, len(in) + 1
}

// hampelPass makes every decision against in, never against values already
// replaced in the same pass.
func hampelPass(in PixelCurve, window int, sigma float64) (PixelCurve, bool) {
	if window < 1 {
		window = 1
	}
	half := window / 2
	out := make(PixelCurve, len(in))
	copy(out, in)
	changed := false

	buf := make([]float64, 0, 2*half+1)
	dev := make([]float64, 0, 2*half+1)
	for i := range in {
		if in.IsMissing(i) {
			continue
		}
		buf = buf[:0]
		for j := max(0, i-half); j <= min(len(in)-1, i+half); j++ {
			if !in.IsMissing(j) {
				buf = append(buf, in[j])
			}
		}
		if len(buf) < 3 {
			continue
		}
		med := median(buf)
		dev = dev[:0]
		for _, v := range buf {
			dev = append(dev, math.Abs(v-med))
		}
		mad := max(median(dev), minMAD)
		if math.Abs(in[i]-med) > sigma*madScale*mad {
			out[i] = med
			changed = true
		}
	}
	return out, changed
}

// median sorts v in place.
func median(v []float64) float64 {
	slices.Sort(v)
	n := len(v)
	if n%2 == 1 {
		return v[n/2]
	}
	return (v[n/2-1] + v[n/2]) / 2
}
