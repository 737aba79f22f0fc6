package crash

// Band is one slice of the crash distribution: crash values are drawn
// uniformly from [Lo, Hi) with probability Weight/sum(Weights).
type Band struct {
	Lo     float64 `json:"lo"`
	Hi     float64 `json:"hi"`
	Weight int64   `json:"weight"`
}

// DefaultBands skews rounds toward short crashes: 40% under 1.50x, 10% at 10x or more.
var DefaultBands = []Band{
	{Lo: 1.00, Hi: 1.50, Weight: 40},
	{Lo: 1.50, Hi: 3.00, Weight: 30},
	{Lo: 3.00, Hi: 10.00, Weight: 20},
	{Lo: 10.00, Hi: 15.00, Weight: 10},
}

// PickBand selects a band by cumulative weight for a uniform draw r in [0, 1).
// Bands with non-positive weight are skipped. Returns false if the table has no weight.
func PickBand(bands []Band, r float64) (Band, bool) {
	var total int64
	for _, b := range bands {
		if b.Weight <= 0 {
			continue
		}
		total += b.Weight
	}
	if total <= 0 {
		return Band{}, false
	}
	var cum int64
	last := -1
	for i := range bands {
		b := bands[i]
		if b.Weight <= 0 {
			continue
		}
		last = i
		cum += b.Weight
		if r < float64(cum)/float64(total) {
			return b, true
		}
	}
	// r rounding up against the final boundary lands in the last weighted band.
	return bands[last], true
}
