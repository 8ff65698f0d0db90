package binance

import (
	"context"
	"errors"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/exchange"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

// Dialer builds per-user Binance clients. With testnet enabled all clients
// talk to the Binance spot testnet.
type Dialer struct{}

// NewDialer creates a Dialer. Pass testnet=true to route orders to the
// Binance spot testnet instead of production.
func NewDialer(testnet ...bool) *Dialer {
	testnet = append(testnet, false)
	if testnet[0] {
		binance.UseTestnet = true
	}
	return &Dialer{}
}

// Dial implements exchange.Dialer.
func (d *Dialer) Dial(apiKey, apiSecret string) exchange.Client {
	return &Client{client: binance.NewClient(apiKey, apiSecret)}
}

// Client implements exchange.Client on top of the Binance spot REST API.
type Client struct {
	client *binance.Client
}

// CurrentPrice implements exchange.Client.
func (c *Client) CurrentPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	prices, err := c.client.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get ticker for %s: %w", pair, err)
	}
	if len(prices) == 0 {
		return decimal.Zero, fmt.Errorf("no ticker returned for %s", pair)
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse ticker price %q for %s: %w", prices[0].Price, pair, err)
	}
	return price, nil
}

// TradingRules implements exchange.Client. The snapshot is fetched fresh on
// every call; the engine relies on that to pick up exchange-side changes.
func (c *Client) TradingRules(ctx context.Context, pair string) (models.TradingRules, error) {
	info, err := c.client.NewExchangeInfoService().Symbol(pair).Do(ctx)
	if err != nil {
		return models.TradingRules{}, fmt.Errorf("failed to get exchange info for %s: %w", pair, err)
	}
	for _, symbol := range info.Symbols {
		if symbol.Symbol == pair {
			return rulesFromFilters(pair, symbol.Filters)
		}
	}
	return models.TradingRules{}, fmt.Errorf("pair %s not present in exchange info", pair)
}

// rulesFromFilters extracts the LOT_SIZE step and the minimum notional from a
// symbol's filter list. Binance renamed MIN_NOTIONAL to NOTIONAL; both spell
// the minimum as "minNotional".
func rulesFromFilters(pair string, filters []map[string]interface{}) (models.TradingRules, error) {
	var rules models.TradingRules
	var haveStep, haveNotional bool
	for _, filter := range filters {
		filterType, _ := filter["filterType"].(string)
		switch filterType {
		case "LOT_SIZE":
			raw, _ := filter["stepSize"].(string)
			step, err := decimal.NewFromString(raw)
			if err != nil {
				return models.TradingRules{}, fmt.Errorf("failed to parse stepSize %q for %s: %w", raw, pair, err)
			}
			rules.StepSize = step
			haveStep = true
		case "MIN_NOTIONAL", "NOTIONAL":
			raw, _ := filter["minNotional"].(string)
			notional, err := decimal.NewFromString(raw)
			if err != nil {
				return models.TradingRules{}, fmt.Errorf("failed to parse minNotional %q for %s: %w", raw, pair, err)
			}
			rules.MinNotional = notional
			haveNotional = true
		}
	}
	if !haveStep || !haveNotional {
		return models.TradingRules{}, fmt.Errorf("exchange info for %s is missing lot-size or notional filter", pair)
	}
	return rules, nil
}

// FreeBalance implements exchange.Client. found is false when the account
// listing does not contain the asset at all.
func (c *Client) FreeBalance(ctx context.Context, asset string) (decimal.Decimal, bool, error) {
	account, err := c.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to get account info: %w", err)
	}
	for _, balance := range account.Balances {
		if balance.Asset == asset {
			free, err := decimal.NewFromString(balance.Free)
			if err != nil {
				return decimal.Zero, false, fmt.Errorf("failed to parse balance %q for %s: %w", balance.Free, asset, err)
			}
			return free, true, nil
		}
	}
	return decimal.Zero, false, nil
}

// Permissions implements exchange.Client using the API-key restrictions
// endpoint.
func (c *Client) Permissions(ctx context.Context) (bool, error) {
	perms, err := c.client.NewGetAPIKeyPermission().Do(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get api key permissions: %w", err)
	}
	return perms.EnableSpotAndMarginTrading, nil
}

// PlaceMarketBuy implements exchange.Client.
func (c *Client) PlaceMarketBuy(ctx context.Context, pair string, quantity decimal.Decimal) (models.Order, error) {
	res, err := c.client.NewCreateOrderService().
		Symbol(pair).
		Side(binance.SideTypeBuy).
		Type(binance.OrderTypeMarket).
		Quantity(quantity.String()).
		Do(ctx)
	if err != nil {
		return models.Order{}, wrapAPIError(err)
	}

	return models.Order{
		OrderID:       res.OrderID,
		ClientOrderID: res.ClientOrderID,
		Pair:          res.Symbol,
		Side:          string(res.Side),
		Type:          string(res.Type),
		Quantity:      quantity,
		Status:        string(res.Status),
	}, nil
}

// PlaceOCOSell implements exchange.Client. The stop leg uses stopPrice as
// both trigger and limit, good-till-cancelled, matching a manual exit order.
func (c *Client) PlaceOCOSell(ctx context.Context, pair string, quantity, stopPrice, limitPrice decimal.Decimal) (models.Order, error) {
	res, err := c.client.NewCreateOCOService().
		Symbol(pair).
		Side(binance.SideTypeSell).
		Quantity(quantity.String()).
		Price(limitPrice.String()).
		StopPrice(stopPrice.String()).
		StopLimitPrice(stopPrice.String()).
		StopLimitTimeInForce(binance.TimeInForceTypeGTC).
		Do(ctx)
	if err != nil {
		return models.Order{}, wrapAPIError(err)
	}

	return models.Order{
		OrderID:       res.OrderListID,
		ClientOrderID: res.ListClientOrderID,
		Pair:          res.Symbol,
		Side:          string(binance.SideTypeSell),
		Type:          "OCO",
		Quantity:      quantity,
		Price:         limitPrice,
		Status:        string(res.ListOrderStatus),
	}, nil
}

// wrapAPIError converts a go-binance API rejection into the transport-neutral
// exchange.APIError so the engine never imports the Binance SDK.
func wrapAPIError(err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return &exchange.APIError{Code: apiErr.Code, Message: apiErr.Message}
	}
	return err
}
