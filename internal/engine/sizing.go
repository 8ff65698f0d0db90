package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/exchange"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

// notionalMargin is added on top of the exchange's minimum notional before
// accepting a spend. The effective minimum moves with the live price, so
// sitting exactly on it gets orders rejected intermittently; one extra unit
// of quote absorbs that drift.
var notionalMargin = decimal.NewFromInt(1)

// orderQuantity converts the configured quote spend into a valid base-asset
// quantity for the signal's pair: it enforces the exchange minimum notional,
// checks the account's free quote balance, and floors the raw quantity to the
// pair's lot step. Rounding is always down; rounding up would overspend.
func (e *Executor) orderQuantity(ctx context.Context, client exchange.Client, signal *models.Signal, price decimal.Decimal) (decimal.Decimal, error) {
	rules, err := e.tradingRules(ctx, client, signal.Pair)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get trading rules for %s: %w", signal.Pair, err)
	}

	spend := e.params.QuoteSpend
	minRequired := rules.MinNotional.Add(notionalMargin)
	if spend.LessThan(minRequired) {
		return decimal.Zero, newError(KindQuoteAmountTooLow,
			fmt.Sprintf("at least %s of quote is required", minRequired),
			map[string]string{
				"amount_of_quote_to_buy_with":      spend.String(),
				"minimum_amount_of_quote_required": minRequired.String(),
			})
	}

	quote := signal.Quote()
	balance, found, err := e.freeBalance(ctx, client, quote)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get %s balance: %w", quote, err)
	}
	if !found {
		return decimal.Zero, newError(KindUnrecognizedQuote,
			fmt.Sprintf("there was an error getting the quote balance for %s", quote),
			map[string]string{"quote": quote})
	}
	if balance.LessThan(spend) {
		return decimal.Zero, newError(KindNotEnoughQuoteBalance,
			fmt.Sprintf("the specified amount of %s is not available", quote),
			map[string]string{
				"quote_balance":               balance.String(),
				"amount_of_quote_to_buy_with": spend.String(),
			})
	}

	return floorToStep(spend.Div(price), rules.StepSize), nil
}

// floorToStep rounds quantity down to the nearest multiple of step.
func floorToStep(quantity, step decimal.Decimal) decimal.Decimal {
	if step.IsZero() {
		return quantity
	}
	return quantity.Div(step).Floor().Mul(step)
}
