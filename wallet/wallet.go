// Package wallet keeps a local, in-memory player balance for the crash engine.
package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("wallet: amount must be positive whole cents")
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
)

// Wallet is a single balance guarded by a mutex. Amounts are kept to cents.
type Wallet struct {
	mu      sync.Mutex
	balance decimal.Decimal
}

func New(initial decimal.Decimal) *Wallet {
	if initial.IsNegative() {
		initial = decimal.Zero
	}
	return &Wallet{balance: initial.Round(2)}
}

// Parse builds a wallet from a decimal string such as "1000" or "250.50".
func Parse(initial string) (*Wallet, error) {
	d, err := decimal.NewFromString(initial)
	if err != nil {
		return nil, fmt.Errorf("parse initial balance %q: %w", initial, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("initial balance %s: %w", d, ErrInvalidAmount)
	}
	return New(d), nil
}

func (w *Wallet) Available() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(2))
}

// Debit removes amount, failing if the balance would go negative.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if amount.GreaterThan(w.balance) {
		return ErrInsufficientFunds
	}
	w.balance = w.balance.Sub(amount)
	return nil
}

func (w *Wallet) Credit(amount decimal.Decimal) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance = w.balance.Add(amount)
	return nil
}
