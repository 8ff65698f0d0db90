package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

// Client exposes the exchange capabilities the execution engine consumes.
// A Client is scoped to one user's credentials; see Dialer.
type Client interface {
	// CurrentPrice retrieves the latest ticker price for a pair
	CurrentPrice(ctx context.Context, pair string) (decimal.Decimal, error)

	// TradingRules retrieves the lot-size and notional constraints for a pair
	TradingRules(ctx context.Context, pair string) (models.TradingRules, error)

	// FreeBalance retrieves the free balance of an asset; found is false when
	// the exchange does not know the asset at all
	FreeBalance(ctx context.Context, asset string) (balance decimal.Decimal, found bool, err error)

	// Permissions reports whether spot and margin trading is enabled for the
	// account behind the credentials
	Permissions(ctx context.Context) (spotAndMarginEnabled bool, err error)

	// PlaceMarketBuy places a market buy order for quantity of the base asset
	PlaceMarketBuy(ctx context.Context, pair string, quantity decimal.Decimal) (models.Order, error)

	// PlaceOCOSell places a one-cancels-other sell: a limit leg at limitPrice
	// and a stop-limit leg triggered and priced at stopPrice, good-till-cancelled
	PlaceOCOSell(ctx context.Context, pair string, quantity, stopPrice, limitPrice decimal.Decimal) (models.Order, error)
}

// Dialer builds a Client bound to one user's credentials. Keeping the
// credentials inside the Client keeps per-user scoping a type-level property
// instead of a calling convention.
type Dialer interface {
	Dial(apiKey, apiSecret string) Client
}

// APIError is an exchange-level order rejection. The raw exchange message is
// preserved so failures can be diagnosed without replaying the order.
type APIError struct {
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}
