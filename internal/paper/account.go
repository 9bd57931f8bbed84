// Package paper simulates execution so recorded trades carry exact money
// math instead of float drift.
package paper

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Fill is one simulated execution.
type Fill struct {
	Strategy string          `json:"strategy"`
	Action   string          `json:"action"`
	Size     decimal.Decimal `json:"size"`
	Price    decimal.Decimal `json:"price"`
	Profit   decimal.Decimal `json:"profit"`
	Won      bool            `json:"won"`
	Time     time.Time       `json:"time"`
}

// Account tracks virtual cash and realized PnL while trading in paper mode.
type Account struct {
	mu           sync.Mutex
	startingCash decimal.Decimal
	cash         decimal.Decimal
	realizedPnL  decimal.Decimal
	fills        int
	wins         int
}

// Snapshot is a read-only view of the account state.
type Snapshot struct {
	Cash        decimal.Decimal `json:"cash"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	Return      decimal.Decimal `json:"return"`
	Fills       int             `json:"fills"`
	Wins        int             `json:"wins"`
}

// NewAccount constructs an account populated with starting cash.
func NewAccount(startingCash float64) *Account {
	cash := decimal.NewFromFloat(startingCash)
	return &Account{startingCash: cash, cash: cash}
}

// StartingCash returns the initial bankroll.
func (a *Account) StartingCash() float64 {
	f, _ := a.startingCash.Float64()
	return f
}

// Settle applies a simulated trade outcome to the balance. The notional is
// the capital committed; profit may be negative.
func (a *Account) Settle(fill Fill) error {
	if fill.Size.IsNegative() {
		return errors.New("size must not be negative")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.cash = a.cash.Add(fill.Profit)
	a.realizedPnL = a.realizedPnL.Add(fill.Profit)
	a.fills++
	if fill.Won {
		a.wins++
	}
	return nil
}

// Equity reports the current balance as a float for the risk manager.
func (a *Account) Equity() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	f, _ := a.cash.Float64()
	return f
}

// Snapshot returns a copy of balances and trade counters.
func (a *Account) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	ret := decimal.Zero
	if !a.startingCash.IsZero() {
		ret = a.cash.Sub(a.startingCash).Div(a.startingCash)
	}
	return Snapshot{
		Cash:        a.cash,
		RealizedPnL: a.realizedPnL,
		Return:      ret,
		Fills:       a.fills,
		Wins:        a.wins,
	}
}
