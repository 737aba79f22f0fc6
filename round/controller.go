package round

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/Ashenafi-pixel/limbo-crash-engine/games/crash"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultMinTarget is the lowest target multiplier a round may start with.
const DefaultMinTarget = 1.01

// recordTimeout bounds a single recorder call.
const recordTimeout = 5 * time.Second

// CrashGenerator draws the hidden crash value for a round. *crash.Generator implements it.
type CrashGenerator interface {
	Generate() float64
}

// Funds is optional balance bookkeeping layered on top of outcomes.
// The stake is debited at start and the payout credited on a win.
type Funds interface {
	Available() decimal.Decimal
	Debit(amount decimal.Decimal) error
	Credit(amount decimal.Decimal) error
}

// Options configure a Controller. They are fixed at construction.
type Options struct {
	GrowthRate    float64
	MinTarget     float64
	Epsilon       float64
	HistoryLength int

	// Scheduler drives ticks while a round runs. Nil means the owner calls Tick.
	Scheduler Scheduler
	// Funds, when set, gates starts on the available balance.
	Funds     Funds
	Recorders []Recorder
	Logger    *zap.Logger
	// NewID generates round IDs. Defaults to uuid.NewString.
	NewID func() string
}

// DefaultOptions returns the stock engine constants with manual ticking.
func DefaultOptions() Options {
	return Options{
		GrowthRate:    crash.DefaultGrowthRate,
		MinTarget:     DefaultMinTarget,
		Epsilon:       crash.DefaultEpsilon,
		HistoryLength: DefaultHistoryLength,
	}
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.GrowthRate <= 0 {
		o.GrowthRate = d.GrowthRate
	}
	if o.MinTarget < 1 {
		o.MinTarget = d.MinTarget
	}
	if o.Epsilon <= 0 {
		o.Epsilon = d.Epsilon
	}
	if o.HistoryLength <= 0 {
		o.HistoryLength = d.HistoryLength
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
}

// Controller owns the round lifecycle: idle -> running -> ended, and reset -> idle.
//
// Start, Tick and Reset may be called from different goroutines. Listeners
// registered with Subscribe are called in state order, outside the state lock,
// and must not call back into the Controller.
type Controller struct {
	mu       sync.Mutex
	opts     Options
	resolver crash.Resolver
	crashes  CrashGenerator
	log      *zap.Logger

	phase      Phase
	roundID    string
	cfg        Config
	crashValue float64
	started    bool
	startedAt  time.Time
	multiplier float64
	outcome    *Outcome
	history    *History

	// generation identifies the active schedule; ticks from older schedules are dropped.
	generation uint64
	handle     Handle

	pubMu   sync.Mutex
	subsMu  sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

func NewController(crashes CrashGenerator, opts Options) *Controller {
	opts.applyDefaults()
	if crashes == nil {
		crashes = crash.NewGenerator(nil)
	}
	return &Controller{
		opts:       opts,
		resolver:   crash.Resolver{GrowthRate: opts.GrowthRate, Epsilon: opts.Epsilon},
		crashes:    crashes,
		log:        opts.Logger,
		phase:      PhaseIdle,
		multiplier: 1.0,
		history:    NewHistory(opts.HistoryLength),
		subs:       make(map[int]func(State)),
	}
}

// CanStart reports whether Start(cfg) would be accepted right now.
func (c *Controller) CanStart(cfg Config) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase != PhaseRunning && c.validLocked(cfg)
}

func (c *Controller) validLocked(cfg Config) bool {
	// Stakes are whole cents.
	if !cfg.Bet.IsPositive() || !cfg.Bet.Equal(cfg.Bet.Round(2)) {
		return false
	}
	if math.IsNaN(cfg.Target) || math.IsInf(cfg.Target, 0) || cfg.Target < c.opts.MinTarget {
		return false
	}
	if c.opts.Funds != nil && cfg.Bet.GreaterThan(c.opts.Funds.Available()) {
		return false
	}
	return true
}

// Start begins a round from idle or ended. Invalid input, a running round or
// a failed debit rejects the start without changing state; it returns false.
func (c *Controller) Start(cfg Config) bool {
	c.mu.Lock()
	if c.phase == PhaseRunning || !c.validLocked(cfg) {
		phase := c.phase
		c.mu.Unlock()
		c.log.Debug("round start rejected",
			zap.String("phase", string(phase)),
			zap.Stringer("bet", cfg.Bet),
			zap.Float64("target", cfg.Target))
		return false
	}
	if c.opts.Funds != nil {
		if err := c.opts.Funds.Debit(cfg.Bet); err != nil {
			c.mu.Unlock()
			c.log.Debug("round start rejected: debit failed", zap.Error(err))
			return false
		}
	}
	c.cancelLocked()
	c.roundID = c.opts.NewID()
	c.cfg = cfg
	c.crashValue = c.crashes.Generate()
	c.started = false
	c.startedAt = time.Time{}
	c.multiplier = 1.0
	c.outcome = nil
	c.phase = PhaseRunning
	if c.opts.Scheduler != nil {
		gen := c.generation
		c.handle = c.opts.Scheduler.Schedule(func(ts time.Time) { c.scheduledTick(gen, ts) })
	}
	roundID := c.roundID
	st := c.snapshotLocked()
	c.pubMu.Lock()
	c.mu.Unlock()

	c.log.Info("round started",
		zap.String("round_id", roundID),
		zap.Stringer("bet", cfg.Bet),
		zap.Float64("target", cfg.Target))
	c.publishHeld(st)
	return true
}

// Tick advances a running round to timestamp ts. The first tick of a round
// fixes its start time. Outside a running round Tick does nothing.
func (c *Controller) Tick(ts time.Time) {
	c.mu.Lock()
	c.advanceAndRelease(ts)
}

func (c *Controller) scheduledTick(gen uint64, ts time.Time) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.advanceAndRelease(ts)
}

// advanceAndRelease must be called with c.mu held; it releases it.
func (c *Controller) advanceAndRelease(ts time.Time) {
	if c.phase != PhaseRunning {
		c.mu.Unlock()
		return
	}
	if !c.started {
		c.started = true
		c.startedAt = ts
	}
	elapsed := ts.Sub(c.startedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	res := c.resolver.Resolve(elapsed, c.cfg.Target, c.crashValue)
	c.multiplier = res.Multiplier
	if !res.Ended {
		st := c.snapshotLocked()
		c.pubMu.Lock()
		c.mu.Unlock()
		c.publishHeld(st)
		return
	}

	out := newOutcome(c.roundID, c.cfg, res.Status, c.crashValue)
	c.outcome = &out
	c.phase = PhaseEnded
	c.history.Push(c.crashValue)
	c.cancelLocked()
	if out.Won() && c.opts.Funds != nil && out.Payout.Decimal.IsPositive() {
		if err := c.opts.Funds.Credit(out.Payout.Decimal); err != nil {
			c.log.Error("credit payout", zap.String("round_id", out.RoundID), zap.Error(err))
		}
	}
	settlement := Settlement{Outcome: out, StartedAt: c.startedAt, SettledAt: ts}
	st := c.snapshotLocked()
	c.pubMu.Lock()
	c.mu.Unlock()

	c.log.Info("round settled",
		zap.String("round_id", out.RoundID),
		zap.String("status", string(out.Status)),
		zap.Float64("crash", out.CrashValue),
		zap.Float64("target", out.Target),
		zap.Float64("elapsed_s", elapsed))
	c.publishHeld(st)
	c.record(settlement)
}

// Reset cancels any scheduled ticks and returns to idle. History is kept.
// A running round is abandoned: its stake stays debited and no outcome is recorded.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.cancelLocked()
	if c.phase == PhaseIdle && c.outcome == nil && c.multiplier == 1.0 {
		c.mu.Unlock()
		return
	}
	if c.phase == PhaseRunning {
		c.log.Info("round abandoned", zap.String("round_id", c.roundID))
	}
	c.phase = PhaseIdle
	c.roundID = ""
	c.cfg = Config{}
	c.crashValue = 0
	c.started = false
	c.startedAt = time.Time{}
	c.multiplier = 1.0
	c.outcome = nil
	st := c.snapshotLocked()
	c.pubMu.Lock()
	c.mu.Unlock()
	c.publishHeld(st)
}

// cancelLocked stops the active schedule and invalidates any tick already in flight.
func (c *Controller) cancelLocked() {
	c.generation++
	if c.handle != nil {
		c.handle.Cancel()
		c.handle = nil
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// History returns recent crash values, newest first.
func (c *Controller) History() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Values()
}

func (c *Controller) snapshotLocked() State {
	st := State{
		RoundID:    c.roundID,
		Phase:      c.phase,
		Multiplier: c.multiplier,
		History:    c.history.Values(),
	}
	if c.outcome != nil {
		o := *c.outcome
		st.Outcome = &o
	}
	if c.opts.Funds != nil {
		b := c.opts.Funds.Available()
		st.Balance = &b
	}
	return st
}

// Subscribe registers fn for every state change and returns a function that removes it.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsMu.Unlock()
	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

// publishHeld delivers st to listeners. Caller holds c.pubMu; it is released here.
func (c *Controller) publishHeld(st State) {
	defer c.pubMu.Unlock()
	c.subsMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (c *Controller) record(s Settlement) {
	for _, r := range c.opts.Recorders {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := r.Record(ctx, s); err != nil {
			c.log.Error("record settlement", zap.String("round_id", s.RoundID), zap.Error(err))
		}
		cancel()
	}
}
