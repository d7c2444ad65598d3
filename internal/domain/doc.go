// Package domain models a colour-banded strip chart published as an image by
// an external monitoring authority, and the values recovered from it.
//
// # Chart Conventions
//
// The chart is a scrolling plot of one physical quantity over a fixed
// trailing window that ends at the capture instant:
//
//	column 0        → captured_at − window
//	last column     → captured_at
//
// The value axis is logarithmic (base 10). A pixel row is normalised to
// [0,1] top-to-bottom, inverted so the top of the plot is the largest value,
// scaled into [LogMin, LogMax] and exponentiated. Values are clamped to a
// small positive epsilon so a log plot never sees zero.
//
// # Severity Bands
//
// The plot background is painted in horizontal bands, bottom to top:
//
//	GREEN → YELLOW → ORANGE → RED
//
// The rows where the band colour changes encode the authority's three
// calibration thresholds (t1 ≤ t2 ≤ t3). Some charts omit the orange band,
// in which case t2 and t3 coincide.
//
// # Threshold Provenance
//
// A [ThresholdSet] always records where it came from:
//
//	detected        fresh detection from the current image
//	cache           previously detected set, returned or re-verified
//	fallback_static statically configured triple, used when nothing else works
//
// and the outcome of its last verification (ok / warning / failed).
package domain
