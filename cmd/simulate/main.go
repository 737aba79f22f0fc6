package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/Ashenafi-pixel/limbo-crash-engine/games/crash"
	"github.com/Ashenafi-pixel/limbo-crash-engine/logger"
	"github.com/Ashenafi-pixel/limbo-crash-engine/round"
	"github.com/Ashenafi-pixel/limbo-crash-engine/wallet"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type options struct {
	rounds     int
	bet        string
	target     float64
	seed       int64
	fps        int
	balance    string
	resultsDir string
	logLevel   string
}

func main() {
	var o options
	flag.IntVar(&o.rounds, "rounds", 10000, "Number of rounds to play")
	flag.StringVar(&o.bet, "bet", "1", "Stake per round")
	flag.Float64Var(&o.target, "target", 2.0, "Target multiplier")
	flag.Int64Var(&o.seed, "seed", 0, "RNG seed; 0 uses crypto/rand")
	flag.IntVar(&o.fps, "fps", 60, "Simulated ticks per second")
	flag.StringVar(&o.balance, "balance", "", "Starting balance; empty plays without a wallet")
	flag.StringVar(&o.resultsDir, "results-dir", "", "Append settlements to <dir>/round_results.json")
	flag.StringVar(&o.logLevel, "log-level", "warn", "Log level")
	flag.Parse()

	if o.rounds <= 0 || o.fps <= 0 {
		fmt.Fprintln(os.Stderr, "-rounds and -fps must be positive")
		os.Exit(1)
	}
	rep, err := run(o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate failed: %v\n", err)
		os.Exit(1)
	}
	rep.print(os.Stdout)
}

// report aggregates settled rounds.
type report struct {
	played   int
	rejected int
	wins     int
	staked   decimal.Decimal
	paid     decimal.Decimal
	bands    [4]int
	crashSum float64
	balance  *decimal.Decimal
}

func (r *report) Record(s round.Settlement) {
	r.played++
	r.staked = r.staked.Add(s.Bet)
	r.crashSum += s.CrashValue
	if s.Won() {
		r.wins++
		r.paid = r.paid.Add(s.Payout.Decimal)
	}
	for i := len(crash.DefaultBands) - 1; i >= 0; i-- {
		if s.CrashValue >= crash.DefaultBands[i].Lo {
			r.bands[i]++
			break
		}
	}
}

func (r *report) print(w io.Writer) {
	fmt.Fprintf(w, "rounds played:  %d (rejected %d)\n", r.played, r.rejected)
	if r.played == 0 {
		return
	}
	fmt.Fprintf(w, "win rate:       %.4f\n", float64(r.wins)/float64(r.played))
	fmt.Fprintf(w, "mean crash:     %.4f\n", r.crashSum/float64(r.played))
	fmt.Fprintf(w, "staked / paid:  %s / %s\n", r.staked.StringFixed(2), r.paid.StringFixed(2))
	if !r.staked.IsZero() {
		fmt.Fprintf(w, "return:         %s\n", r.paid.Div(r.staked).StringFixed(4))
	}
	for i, b := range crash.DefaultBands {
		fmt.Fprintf(w, "  [%5.2f, %5.2f)  %.4f\n", b.Lo, b.Hi, float64(r.bands[i])/float64(r.played))
	}
	if r.balance != nil {
		fmt.Fprintf(w, "final balance:  %s\n", r.balance.StringFixed(2))
	}
}

func run(o options) (*report, error) {
	stake, err := decimal.NewFromString(o.bet)
	if err != nil {
		return nil, fmt.Errorf("parse -bet: %w", err)
	}
	lg, err := logger.New(o.logLevel)
	if err != nil {
		return nil, err
	}
	defer lg.Sync()

	var src crash.Source
	if o.seed != 0 {
		src = rand.New(rand.NewSource(o.seed))
	}
	rep := &report{}
	opts := round.DefaultOptions()
	opts.Logger = lg
	var w *wallet.Wallet
	if o.balance != "" {
		if w, err = wallet.Parse(o.balance); err != nil {
			return nil, err
		}
		opts.Funds = w
	}
	if o.resultsDir != "" {
		opts.Recorders = append(opts.Recorders, round.NewResultsStore(o.resultsDir))
	}
	ctrl := round.NewController(crash.NewGenerator(src), opts)

	frame := time.Second / time.Duration(o.fps)
	clock := time.Now()
	for i := 0; i < o.rounds; i++ {
		if !ctrl.Start(round.Config{Bet: stake, Target: o.target}) {
			rep.rejected++
			lg.Info("round rejected, stopping", zap.Int("round", i))
			break
		}
		for ctrl.State().Phase == round.PhaseRunning {
			ctrl.Tick(clock)
			clock = clock.Add(frame)
		}
		st := ctrl.State()
		rep.Record(round.Settlement{Outcome: *st.Outcome})
	}
	if w != nil {
		b := w.Available()
		rep.balance = &b
	}
	return rep, nil
}
