package engine

import (
	"context"
	"fmt"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/exchange"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

// ExecuteBatch runs every signal sequentially for one user. The permission
// check runs once, before any signal; without spot trading permission the
// whole batch fails with NotEnoughPerms. After that, each signal is attempted
// independently: a failure (typed, unexpected, or a panic) is recorded under
// the signal's id and the loop continues. Signals stay sequential because
// each one draws on the same quote balance pool.
func (e *Executor) ExecuteBatch(ctx context.Context, signals []models.Signal, user models.User) (map[string]models.SignalOutcome, error) {
	client := e.dialer.Dial(user.APIKey, user.APISecret)

	enabled, err := e.permissions(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to get trading permissions: %w", err)
	}
	if !enabled {
		return nil, newError(KindNotEnoughPerms,
			"spot trading perms are not allowed for the api", nil)
	}

	results := make(map[string]models.SignalOutcome, len(signals))
	for i := range signals {
		signal := &signals[i]
		report, err := e.executeSignalSafe(ctx, client, signal)
		if err != nil {
			e.log.Warn("signal skipped",
				"user", user.Username,
				"signal", signal.ID,
				"pair", signal.Pair,
				"kind", string(KindOf(err)),
				"err", err)
			results[signal.ID] = models.SignalOutcome{OK: false, Error: err.Error()}
			continue
		}
		e.log.Info("signal executed",
			"user", user.Username,
			"signal", signal.ID,
			"pair", signal.Pair,
			"buy_order", report.Buy.OrderID,
			"sell_order", report.Sell.OrderID)
		results[signal.ID] = models.SignalOutcome{OK: true, Report: report}
	}
	return results, nil
}

// executeSignalSafe contains a single signal's blast radius: a panic inside
// the executor becomes an Unclassified error instead of taking down the batch.
func (e *Executor) executeSignalSafe(ctx context.Context, client exchange.Client, signal *models.Signal) (report *models.OrderReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = &Error{
				Kind: KindUnclassified,
				Msg:  fmt.Sprintf("panic while executing signal %s: %v", signal.ID, r),
			}
		}
	}()
	return e.ExecuteSignal(ctx, client, signal)
}
