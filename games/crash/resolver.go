package crash

import "math"

// Status is the terminal result of a round.
type Status string

const (
	StatusWin  Status = "win"
	StatusLoss Status = "loss"
)

// DefaultGrowthRate is multiplier units per second.
const DefaultGrowthRate = 0.8

// DefaultEpsilon absorbs float truncation near event boundaries, in seconds.
const DefaultEpsilon = 1e-3

// Resolver races the target against the crash value in continuous time.
// It holds only constants, so Resolve is a pure function of its arguments.
type Resolver struct {
	GrowthRate float64
	Epsilon    float64
}

// Resolution is the resolver's view of a round at one instant.
type Resolution struct {
	Multiplier float64
	Ended      bool
	Status     Status // set only when Ended
	TargetAt   float64
	CrashAt    float64
}

// EndAt is the time, in seconds from round start, at which the round ends.
func (r Resolution) EndAt() float64 {
	return math.Min(r.TargetAt, r.CrashAt)
}

// EventTime returns the seconds needed for the multiplier to climb from 1.00 to m.
func (r Resolver) EventTime(m float64) float64 {
	return (m - 1.0) / r.GrowthRate
}

// Resolve computes the displayed multiplier after elapsed seconds and whether
// the round has ended. The target wins ties within Epsilon. On termination the
// multiplier snaps to the exact event value.
func (r Resolver) Resolve(elapsed, target, crashValue float64) Resolution {
	res := Resolution{
		TargetAt: r.EventTime(target),
		CrashAt:  r.EventTime(crashValue),
	}
	if elapsed+r.Epsilon >= res.EndAt() {
		res.Ended = true
		if res.TargetAt <= res.CrashAt+r.Epsilon {
			res.Status = StatusWin
			res.Multiplier = target
		} else {
			res.Status = StatusLoss
			res.Multiplier = crashValue
		}
		return res
	}
	res.Multiplier = math.Min(1.0+elapsed*r.GrowthRate, math.Min(target, crashValue))
	return res
}
