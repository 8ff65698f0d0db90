package engine

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/exchange"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

// fakeClient is a call-recording exchange double. Err fields make the
// matching operation fail; panicOnPrice simulates an unexpected crash inside
// an exchange call.
type fakeClient struct {
	price        decimal.Decimal
	priceErr     error
	panicOnPrice bool
	rules        models.TradingRules
	rulesErr     error
	balances     map[string]decimal.Decimal
	balanceErr   error
	perms        bool
	permsErr     error
	buyErr       error
	sellErr      error

	calls []string
	buys  []placedBuy
	sells []placedSell
}

type placedBuy struct {
	pair     string
	quantity decimal.Decimal
}

type placedSell struct {
	pair       string
	quantity   decimal.Decimal
	stopPrice  decimal.Decimal
	limitPrice decimal.Decimal
}

func (f *fakeClient) CurrentPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	f.calls = append(f.calls, "price")
	if f.panicOnPrice {
		panic("ticker feed corrupted")
	}
	if f.priceErr != nil {
		return decimal.Zero, f.priceErr
	}
	return f.price, nil
}

func (f *fakeClient) TradingRules(ctx context.Context, pair string) (models.TradingRules, error) {
	f.calls = append(f.calls, "rules")
	if f.rulesErr != nil {
		return models.TradingRules{}, f.rulesErr
	}
	return f.rules, nil
}

func (f *fakeClient) FreeBalance(ctx context.Context, asset string) (decimal.Decimal, bool, error) {
	f.calls = append(f.calls, "balance")
	if f.balanceErr != nil {
		return decimal.Zero, false, f.balanceErr
	}
	balance, ok := f.balances[asset]
	return balance, ok, nil
}

func (f *fakeClient) Permissions(ctx context.Context) (bool, error) {
	f.calls = append(f.calls, "perms")
	if f.permsErr != nil {
		return false, f.permsErr
	}
	return f.perms, nil
}

func (f *fakeClient) PlaceMarketBuy(ctx context.Context, pair string, quantity decimal.Decimal) (models.Order, error) {
	f.calls = append(f.calls, "buy")
	if f.buyErr != nil {
		return models.Order{}, f.buyErr
	}
	f.buys = append(f.buys, placedBuy{pair: pair, quantity: quantity})
	return models.Order{
		OrderID:  int64(len(f.buys)),
		Pair:     pair,
		Side:     "BUY",
		Type:     "MARKET",
		Quantity: quantity,
		Status:   "FILLED",
	}, nil
}

func (f *fakeClient) PlaceOCOSell(ctx context.Context, pair string, quantity, stopPrice, limitPrice decimal.Decimal) (models.Order, error) {
	f.calls = append(f.calls, "sell")
	if f.sellErr != nil {
		return models.Order{}, f.sellErr
	}
	f.sells = append(f.sells, placedSell{pair: pair, quantity: quantity, stopPrice: stopPrice, limitPrice: limitPrice})
	return models.Order{
		OrderID:  int64(len(f.sells)),
		Pair:     pair,
		Side:     "SELL",
		Type:     "OCO",
		Quantity: quantity,
		Price:    limitPrice,
		Status:   "EXECUTING",
	}, nil
}

func (f *fakeClient) called(op string) int {
	n := 0
	for _, call := range f.calls {
		if call == op {
			n++
		}
	}
	return n
}

// fakeDialer hands out one pre-built client per API key.
type fakeDialer struct {
	clients map[string]*fakeClient
}

func (d *fakeDialer) Dial(apiKey, apiSecret string) exchange.Client {
	if client, ok := d.clients[apiKey]; ok {
		return client
	}
	panic(fmt.Sprintf("no fake client for api key %q", apiKey))
}

// fakeDirectory is a static enrolled-user list.
type fakeDirectory struct {
	users []models.User
	err   error
}

func (d *fakeDirectory) EnrolledUsers(ctx context.Context) ([]models.User, error) {
	return d.users, d.err
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// healthyClient returns a client for which every call of a standard signal
// execution succeeds with the spec's end-to-end example numbers.
func healthyClient() *fakeClient {
	return &fakeClient{
		price: decimal.NewFromInt(105),
		rules: models.TradingRules{
			StepSize:    decimal.RequireFromString("0.0001"),
			MinNotional: decimal.NewFromInt(10),
		},
		balances: map[string]decimal.Decimal{
			"USDT": decimal.NewFromInt(1000),
		},
		perms: true,
	}
}

func btcSignal() models.Signal {
	return models.Signal{
		ID:        "spot-1",
		Pair:      "BTCUSDT",
		Symbol:    "BTC",
		BuyPrice:  decimal.NewFromInt(100),
		StopPrice: decimal.NewFromInt(90),
		TP1:       decimal.NewFromInt(110),
		TP2:       decimal.NewFromInt(120),
		TP3:       decimal.NewFromInt(130),
		Risk:      "medium",
		Type:      "spot",
	}
}

func newTestExecutor(t *testing.T, dialer exchange.Dialer, directory *fakeDirectory, params Params) *Executor {
	t.Helper()
	if directory == nil {
		directory = &fakeDirectory{}
	}
	return NewExecutor(dialer, directory, params, testLogger(t))
}
