package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Signal 现货信号 (spot signal), produced upstream and read-only to the engine.
type Signal struct {
	ID          string          `json:"spot_id" redis:"spot_id"`
	Pair        string          `json:"pair" redis:"pair"`     // e.g. BTCUSDT
	Symbol      string          `json:"symbol" redis:"symbol"` // base asset, prefix of Pair
	BuyPrice    decimal.Decimal `json:"buy_price" redis:"buy_price"`
	StopPrice   decimal.Decimal `json:"stop_price" redis:"stop_price"`
	TP1         decimal.Decimal `json:"tp1" redis:"tp1"`
	TP2         decimal.Decimal `json:"tp2" redis:"tp2"`
	TP3         decimal.Decimal `json:"tp3" redis:"tp3"`
	Risk        string          `json:"risk" redis:"risk"`
	Type        string          `json:"spot_type" redis:"spot_type"`
	ChartURL    string          `json:"chart_url,omitempty" redis:"chart_url"`
	CoinLogoURL string          `json:"coin_logo_url,omitempty" redis:"coin_logo_url"`
	TPDone      int             `json:"tp_done" redis:"tp_done"`
	TotalTP     int             `json:"total_tp" redis:"total_tp"`
	CreatedAt   time.Time       `json:"created_at" redis:"created_at"`
}

// Validate checks the structural invariants the execution engine relies on.
// Malformed signals are rejected before any exchange call is made.
func (s *Signal) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("signal has no id")
	}
	if s.Pair == "" || s.Symbol == "" {
		return fmt.Errorf("signal %s: pair and symbol are required", s.ID)
	}
	if !strings.HasPrefix(s.Pair, s.Symbol) || s.Pair == s.Symbol {
		return fmt.Errorf("signal %s: symbol %q is not a proper prefix of pair %q", s.ID, s.Symbol, s.Pair)
	}
	if !s.StopPrice.IsPositive() {
		return fmt.Errorf("signal %s: stop price must be positive, got %s", s.ID, s.StopPrice)
	}
	if s.StopPrice.GreaterThanOrEqual(s.BuyPrice) {
		return fmt.Errorf("signal %s: stop price %s is not below buy price %s", s.ID, s.StopPrice, s.BuyPrice)
	}
	if s.BuyPrice.GreaterThanOrEqual(s.TP1) {
		return fmt.Errorf("signal %s: buy price %s is not below tp1 %s", s.ID, s.BuyPrice, s.TP1)
	}
	return nil
}

// Quote returns the quote asset, the remainder of the pair after the base symbol.
func (s *Signal) Quote() string {
	return strings.TrimPrefix(s.Pair, s.Symbol)
}

// User 用户信息 including exchange credentials.
type User struct {
	Username  string `json:"username" redis:"username"`
	Email     string `json:"email,omitempty" redis:"email"`
	IsAdmin   bool   `json:"is_admin" redis:"is_admin"`
	Disabled  bool   `json:"disabled" redis:"disabled"`
	APIKey    string `json:"-" redis:"binance_api_key"`
	APISecret string `json:"-" redis:"binance_api_secret"`
}

// TradingRules is the per-pair lot-size and notional snapshot, fetched fresh
// for every execution so exchange-side changes are picked up.
type TradingRules struct {
	StepSize    decimal.Decimal `json:"step_size"`
	MinNotional decimal.Decimal `json:"min_notional"`
}

// Order is the exchange's acknowledgement of a placed order.
type Order struct {
	OrderID       int64           `json:"order_id"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Pair          string          `json:"pair"`
	Side          string          `json:"side"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Status        string          `json:"status"`
}

// OrderReport pairs the entry order with its contingent exit order.
type OrderReport struct {
	Buy  Order `json:"buy"`
	Sell Order `json:"sell"`
}

// SignalOutcome is the tagged result of executing one signal for one user.
type SignalOutcome struct {
	OK     bool         `json:"status"`
	Report *OrderReport `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// UserOutcome is the tagged result of one user's whole batch.
type UserOutcome struct {
	OK      bool                     `json:"status"`
	Signals map[string]SignalOutcome `json:"result,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

// ExecutionReport is the run-level aggregate handed to sinks and notifiers.
type ExecutionReport struct {
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Signals    []string               `json:"signals"`
	Users      map[string]UserOutcome `json:"users"`
}
