package round

import (
	"context"
	"time"

	"github.com/Ashenafi-pixel/limbo-crash-engine/games/crash"

	"github.com/shopspring/decimal"
)

// Phase is the lifecycle position of the controller.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseEnded   Phase = "ended"
)

// Config holds the player's inputs, fixed when the round starts.
type Config struct {
	Bet    decimal.Decimal `json:"betAmount"`
	Target float64         `json:"targetMultiplier"`
}

// Outcome records one completed round. It is built once at termination and never modified.
type Outcome struct {
	RoundID    string              `json:"roundId"`
	Status     crash.Status        `json:"status"` // "win" or "loss"
	CrashValue float64             `json:"crashValue"`
	Target     float64             `json:"targetMultiplier"`
	Bet        decimal.Decimal     `json:"betAmount"`
	Payout     decimal.NullDecimal `json:"payout"` // valid only on win
}

// Won reports whether the target was reached first.
func (o Outcome) Won() bool {
	return o.Status == crash.StatusWin
}

// Payout returns bet × target rounded to currency precision (cents).
func Payout(bet decimal.Decimal, target float64) decimal.Decimal {
	return bet.Mul(decimal.NewFromFloat(target)).Round(2)
}

func newOutcome(roundID string, cfg Config, status crash.Status, crashValue float64) Outcome {
	o := Outcome{
		RoundID:    roundID,
		Status:     status,
		CrashValue: crashValue,
		Target:     cfg.Target,
		Bet:        cfg.Bet,
	}
	if status == crash.StatusWin {
		o.Payout = decimal.NewNullDecimal(Payout(cfg.Bet, cfg.Target))
	}
	return o
}

// Settlement is what recorders receive when a round ends.
type Settlement struct {
	Outcome
	StartedAt time.Time `json:"startedAt"`
	SettledAt time.Time `json:"settledAt"`
}

// Recorder receives every settlement. Errors are logged by the controller and never block a round.
type Recorder interface {
	Record(ctx context.Context, s Settlement) error
}

// State is the observable snapshot of the controller. The crash value of a
// running round is never exposed; it appears only inside Outcome.
type State struct {
	RoundID    string           `json:"roundId,omitempty"`
	Phase      Phase            `json:"phase"`
	Multiplier float64          `json:"currentMultiplier"`
	Outcome    *Outcome         `json:"outcome,omitempty"`
	History    []float64        `json:"history"`
	Balance    *decimal.Decimal `json:"balance,omitempty"`
}
