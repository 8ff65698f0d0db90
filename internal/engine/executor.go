package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/exchange"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/store"
)

// Defaults for Params. 11 quote units is the practical minimum for most
// X/USDT pairs; 0.5 accepts entries up to halfway between buy price and tp1.
var (
	DefaultQuoteSpend = decimal.NewFromInt(11)
	DefaultTolerance  = decimal.NewFromFloat(0.5)
)

const (
	DefaultCallTimeout = 10 * time.Second
	DefaultWorkers     = 4
)

// Params tunes the execution engine.
type Params struct {
	// QuoteSpend is the quote-currency amount committed per signal.
	QuoteSpend decimal.Decimal
	// Tolerance, between 0 and 1, scales how far above the buy price (toward
	// tp1) an entry is still accepted.
	Tolerance decimal.Decimal
	// CallTimeout bounds every individual exchange call.
	CallTimeout time.Duration
	// Workers bounds how many users execute concurrently.
	Workers int
}

func (p *Params) normalize() {
	if p.QuoteSpend.IsZero() {
		p.QuoteSpend = DefaultQuoteSpend
	}
	if p.Tolerance.IsZero() {
		p.Tolerance = DefaultTolerance
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = DefaultCallTimeout
	}
	if p.Workers <= 0 {
		p.Workers = DefaultWorkers
	}
}

// Executor runs spot signals against user trading accounts. All collaborators
// are injected; the engine holds no credentials and persists nothing.
type Executor struct {
	dialer    exchange.Dialer
	directory store.Directory
	params    Params
	log       *slog.Logger
}

// NewExecutor creates an Executor. Zero-valued Params fields fall back to the
// package defaults.
func NewExecutor(dialer exchange.Dialer, directory store.Directory, params Params, log *slog.Logger) *Executor {
	params.normalize()
	return &Executor{
		dialer:    dialer,
		directory: directory,
		params:    params,
		log:       log,
	}
}

// ExecuteSignal executes one signal on one already permission-checked
// account: validates the signal, checks the entry price against the
// acceptance band, sizes the order and places a market buy followed by an
// OCO sell. The buy is never rolled back when the sell leg is rejected; the
// returned OrderFailed error carries the sell parameters so the exit can be
// placed manually.
func (e *Executor) ExecuteSignal(ctx context.Context, client exchange.Client, signal *models.Signal) (*models.OrderReport, error) {
	if err := signal.Validate(); err != nil {
		return nil, &Error{
			Kind:  KindInvalidSignal,
			Msg:   "signal failed validation",
			Cause: err,
		}
	}

	price, err := e.currentPrice(ctx, client, signal.Pair)
	if err != nil {
		return nil, fmt.Errorf("failed to get current price for %s: %w", signal.Pair, err)
	}

	lower := signal.StopPrice
	upper := signal.BuyPrice.Add(e.params.Tolerance.Mul(signal.TP1.Sub(signal.BuyPrice)))
	if !(price.GreaterThan(lower) && price.LessThan(upper)) {
		return nil, newError(KindPriceOutOfRange,
			fmt.Sprintf("current price %s is outside (%s, %s)", price, lower, upper),
			map[string]string{
				"current_price": price.String(),
				"lower_bound":   lower.String(),
				"upper_bound":   upper.String(),
			})
	}

	quantity, err := e.orderQuantity(ctx, client, signal, price)
	if err != nil {
		return nil, err
	}

	buy, err := e.placeMarketBuy(ctx, client, signal.Pair, quantity)
	if err != nil {
		return nil, orderFailed("buy order failed", err, map[string]string{
			"symbol":   signal.Pair,
			"quantity": quantity.String(),
		})
	}

	sell, err := e.placeOCOSell(ctx, client, signal, quantity)
	if err != nil {
		// The buy has already executed; deliberately left standing.
		return nil, orderFailed("sell (OCO) order failed", err, map[string]string{
			"symbol":           signal.Pair,
			"quantity":         quantity.String(),
			"stop_price":       signal.StopPrice.String(),
			"stop_limit_price": signal.StopPrice.String(),
			"price":            signal.TP1.String(),
			"time_in_force":    "GTC",
			"buy_order_id":     fmt.Sprintf("%d", buy.OrderID),
		})
	}

	return &models.OrderReport{Buy: buy, Sell: sell}, nil
}

// orderFailed wraps an exchange rejection, keeping the raw exchange message
// as a structured parameter.
func orderFailed(msg string, cause error, params map[string]string) *Error {
	params["server_response"] = cause.Error()
	return &Error{Kind: KindOrderFailed, Msg: msg, Params: params, Cause: cause}
}

// Every exchange call gets its own deadline so a stalled connection fails
// that signal only, never the whole run.

func (e *Executor) currentPrice(ctx context.Context, client exchange.Client, pair string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, e.params.CallTimeout)
	defer cancel()
	return client.CurrentPrice(ctx, pair)
}

func (e *Executor) tradingRules(ctx context.Context, client exchange.Client, pair string) (models.TradingRules, error) {
	ctx, cancel := context.WithTimeout(ctx, e.params.CallTimeout)
	defer cancel()
	return client.TradingRules(ctx, pair)
}

func (e *Executor) freeBalance(ctx context.Context, client exchange.Client, asset string) (decimal.Decimal, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.params.CallTimeout)
	defer cancel()
	return client.FreeBalance(ctx, asset)
}

func (e *Executor) permissions(ctx context.Context, client exchange.Client) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, e.params.CallTimeout)
	defer cancel()
	return client.Permissions(ctx)
}

func (e *Executor) placeMarketBuy(ctx context.Context, client exchange.Client, pair string, quantity decimal.Decimal) (models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, e.params.CallTimeout)
	defer cancel()
	return client.PlaceMarketBuy(ctx, pair, quantity)
}

func (e *Executor) placeOCOSell(ctx context.Context, client exchange.Client, signal *models.Signal, quantity decimal.Decimal) (models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, e.params.CallTimeout)
	defer cancel()
	return client.PlaceOCOSell(ctx, signal.Pair, quantity, signal.StopPrice, signal.TP1)
}
