package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRun_WithWallet(t *testing.T) {
	rep, err := run(options{rounds: 200, bet: "1", target: 2, seed: 42, fps: 60, balance: "1000", logLevel: "error"})
	if err != nil {
		t.Fatal(err)
	}
	if rep.played != 200 || rep.rejected != 0 {
		t.Fatalf("played %d rejected %d", rep.played, rep.rejected)
	}
	if !rep.staked.Equal(decimal.NewFromInt(200)) {
		t.Errorf("staked %s want 200", rep.staked)
	}
	if rep.wins == 0 || rep.wins == rep.played {
		t.Errorf("wins %d of %d", rep.wins, rep.played)
	}
	if got := rep.bands[0] + rep.bands[1] + rep.bands[2] + rep.bands[3]; got != rep.played {
		t.Errorf("band counts sum to %d want %d", got, rep.played)
	}
	want := decimal.NewFromInt(1000).Sub(rep.staked).Add(rep.paid)
	if rep.balance == nil || !rep.balance.Equal(want) {
		t.Errorf("balance %v want %s", rep.balance, want)
	}

	var buf bytes.Buffer
	rep.print(&buf)
	for _, line := range []string{"rounds played:  200 (rejected 0)", "win rate:", "final balance:"} {
		if !strings.Contains(buf.String(), line) {
			t.Errorf("report missing %q:\n%s", line, buf.String())
		}
	}
}

func TestRun_SameSeedSameResult(t *testing.T) {
	o := options{rounds: 50, bet: "2.50", target: 1.5, seed: 7, fps: 30, logLevel: "error"}
	a, err := run(o)
	if err != nil {
		t.Fatal(err)
	}
	b, err := run(o)
	if err != nil {
		t.Fatal(err)
	}
	if a.wins != b.wins || a.crashSum != b.crashSum || !a.paid.Equal(b.paid) {
		t.Errorf("seeded runs differ: %d/%v/%s vs %d/%v/%s", a.wins, a.crashSum, a.paid, b.wins, b.crashSum, b.paid)
	}
	if a.balance != nil {
		t.Error("balance reported without a wallet")
	}
}

func TestRun_StopsWhenBalanceRunsOut(t *testing.T) {
	rep, err := run(options{rounds: 100, bet: "5", target: 14.9, seed: 3, fps: 60, balance: "10", logLevel: "error"})
	if err != nil {
		t.Fatal(err)
	}
	if rep.rejected != 1 || rep.played >= 100 {
		t.Errorf("played %d rejected %d, want an early stop", rep.played, rep.rejected)
	}
}

func TestRun_BadBet(t *testing.T) {
	if _, err := run(options{rounds: 1, bet: "abc", target: 2, fps: 60, logLevel: "error"}); err == nil {
		t.Error("expected an error for a malformed bet")
	}
}
