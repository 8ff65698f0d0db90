package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an execution failure. Every kind except NotEnoughPerms is
// recoverable at the signal level: the signal is skipped and the batch moves on.
type Kind string

const (
	// KindPriceOutOfRange means the current price left the acceptance band.
	KindPriceOutOfRange Kind = "price_out_of_range"
	// KindUnrecognizedQuote means the quote-asset balance lookup returned nothing.
	KindUnrecognizedQuote Kind = "unrecognized_quote"
	// KindNotEnoughQuoteBalance means the account holds less quote than the spend.
	KindNotEnoughQuoteBalance Kind = "not_enough_quote_balance"
	// KindQuoteAmountTooLow means the configured spend is below the exchange minimum.
	KindQuoteAmountTooLow Kind = "quote_amount_too_low"
	// KindOrderFailed means the exchange rejected an order.
	KindOrderFailed Kind = "order_failed"
	// KindNotEnoughPerms means the account lacks spot trading permission.
	// It aborts the whole user batch, not a single signal.
	KindNotEnoughPerms Kind = "not_enough_perms"
	// KindInvalidSignal means the signal failed structural validation.
	KindInvalidSignal Kind = "invalid_signal"
	// KindUnclassified tags anything that escaped a signal or user unit
	// without a named kind, including recovered panics.
	KindUnclassified Kind = "unclassified"
)

// Error is a tagged execution failure. Params carry the values the decision
// was made on (bounds, quantities, raw exchange message) so the failure can
// be reconstructed without free-text parsing.
type Error struct {
	Kind   Kind
	Msg    string
	Params map[string]string
	Cause  error
}

func (e *Error) Error() string {
	if len(e.Params) == 0 {
		return e.Msg
	}
	keys := make([]string, 0, len(e.Params))
	for k := range e.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, e.Params[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Msg, strings.Join(parts, ", "))
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, msg string, params map[string]string) *Error {
	return &Error{Kind: kind, Msg: msg, Params: params}
}

// KindOf extracts the Kind of err, or KindUnclassified for anything that is
// not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnclassified
}
