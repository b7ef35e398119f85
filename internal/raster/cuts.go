package raster

import (
	"fmt"
	"math"
)

// Cut is a split row and the mean ink of the five rows centred on it
type Cut struct {
	Y     int     `json:"y"`
	Score float64 `json:"score"`
}

// Cuts holds the upper and lower split rows.
// Tight is set when the rows stayed closer than the minimum gap after the repair attempt.
type Cuts struct {
	Upper Cut  `json:"upper"`
	Lower Cut  `json:"lower"`
	Tight bool `json:"tight,omitempty"`
}

// CutOptions tunes the clean-cut search
type CutOptions struct {
	WindowPct   float64 // search half-window as a fraction of the height
	MinWindowPx int     // lower bound for the half-window
	MinGapPx    int     // minimum distance between the two cuts
	Guard       int     // rows kept clear of either edge
}

// DefaultCutOptions returns a 6% window (at least 8 px), a 24 px gap and a 2 px guard
func DefaultCutOptions() CutOptions {
	return CutOptions{
		WindowPct:   0.06,
		MinWindowPx: 8,
		MinGapPx:    24,
		Guard:       2,
	}
}

// Window returns the search half-window for a surface of the given height
func (o CutOptions) Window(height int) int {
	w := int(math.Round(float64(height) * o.WindowPct))
	if w < o.MinWindowPx {
		w = o.MinWindowPx
	}
	return w
}

// FindCleanCut scans [target-window, target+window], kept guard rows away from
// either edge, and returns the row with the least ink summed over the five rows
// centred on it. The first minimum in ascending order wins. Guards below 2
// are raised to 2 so the smoothing rows stay inside the profile.
func FindCleanCut(ink []float64, target float64, window, guard int) Cut {
	h := len(ink)
	if guard < 2 {
		guard = 2
	}
	start := max(guard, int(math.Floor(target-float64(window))))
	end := min(h-1-guard, int(math.Floor(target+float64(window))))

	best := Cut{Y: clamp(int(math.Round(target)), 0, max(h-1, 0)), Score: math.Inf(1)}
	for y := start; y <= end; y++ {
		sum := 0.0
		for k := -2; k <= 2; k++ {
			sum += ink[y+k]
		}
		if sum < best.Score {
			best = Cut{Y: y, Score: sum}
		}
	}
	if math.IsInf(best.Score, 1) {
		return Cut{Y: best.Y, Score: localInk(ink, best.Y)}
	}
	best.Score /= 5
	return best
}

// localInk averages the rows around y that exist
func localInk(ink []float64, y int) float64 {
	sum, n := 0.0, 0
	for k := -2; k <= 2; k++ {
		if i := y + k; i >= 0 && i < len(ink) {
			sum += ink[i]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// SelectCuts picks clean cuts near H/3 and 2H/3.
// When the cuts are closer than MinGapPx the lower one is searched again around
// 2H/3 + 0.6*window; if that still fails the tight pair is kept and flagged.
// The result always satisfies 1 <= Upper.Y < Lower.Y <= H-2.
func SelectCuts(ink []float64, opts CutOptions) (Cuts, error) {
	h := len(ink)
	if h < 4 {
		return Cuts{}, fmt.Errorf("selecting cuts: surface height %d is too small to split", h)
	}
	win := opts.Window(h)
	t1 := float64(h) / 3
	t2 := 2 * float64(h) / 3

	c1 := FindCleanCut(ink, t1, win, opts.Guard)
	c2 := FindCleanCut(ink, t2, win, opts.Guard)

	tight := false
	if c2.Y-c1.Y < opts.MinGapPx {
		alt := FindCleanCut(ink, math.Min(float64(h-1), t2+0.6*float64(win)), win, opts.Guard)
		if alt.Y-c1.Y >= opts.MinGapPx {
			c2 = alt
		} else {
			tight = true
		}
	}

	c1.Y = clamp(c1.Y, 1, h-2)
	c2.Y = max(c1.Y+1, min(h-2, c2.Y))
	if c2.Y-c1.Y < opts.MinGapPx {
		tight = true
	}
	return Cuts{Upper: c1, Lower: c2, Tight: tight}, nil
}

// Band is one horizontal slice of a surface
type Band struct {
	Name   string `json:"name"`
	Y      int    `json:"y"`
	Height int    `json:"height"`
}

// Band names, top to bottom
const (
	BandTop    = "A"
	BandMiddle = "B"
	BandBottom = "C"
)

// Bands splits height into [0,y1), [y1,y2) and [y2,height)
func Bands(height int, cuts Cuts) []Band {
	y1, y2 := cuts.Upper.Y, cuts.Lower.Y
	return []Band{
		{Name: BandTop, Y: 0, Height: y1},
		{Name: BandMiddle, Y: y1, Height: y2 - y1},
		{Name: BandBottom, Y: y2, Height: height - y2},
	}
}
