package round

// DefaultHistoryLength is how many crash values are retained.
const DefaultHistoryLength = 5

// History keeps the most recent crash values, newest first.
type History struct {
	limit  int
	values []float64
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLength
	}
	return &History{limit: limit, values: make([]float64, 0, limit)}
}

// Push puts v at the front and drops the oldest entry beyond the limit.
func (h *History) Push(v float64) {
	if len(h.values) < h.limit {
		h.values = append(h.values, 0)
	}
	copy(h.values[1:], h.values[:len(h.values)-1])
	h.values[0] = v
}

// Values returns a copy, newest first.
func (h *History) Values() []float64 {
	out := make([]float64, len(h.values))
	copy(out, h.values)
	return out
}

func (h *History) Len() int {
	return len(h.values)
}
