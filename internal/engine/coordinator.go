package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

type userResult struct {
	username string
	outcome  models.UserOutcome
}

// ExecuteForEnrolledUsers runs the signal batch for every enrolled user and
// returns the outcome per username. Users execute on a bounded number of
// workers; each user's batch is fully independent (own credentials, own
// client), so one user's failure, permission problem, or panic never touches
// another. Workers report over a channel and the map is assembled once all of
// them are done, so no map is shared across goroutines.
func (e *Executor) ExecuteForEnrolledUsers(ctx context.Context, signals []models.Signal) (map[string]models.UserOutcome, error) {
	users, err := e.directory.EnrolledUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled users: %w", err)
	}

	results := make(chan userResult, len(users))
	sem := make(chan struct{}, e.params.Workers)
	var wg sync.WaitGroup

	for _, user := range users {
		wg.Add(1)
		go func(user models.User) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results <- userResult{
				username: user.Username,
				outcome:  e.executeBatchSafe(ctx, signals, user),
			}
		}(user)
	}

	wg.Wait()
	close(results)

	outcomes := make(map[string]models.UserOutcome, len(users))
	for res := range results {
		outcomes[res.username] = res.outcome
	}
	return outcomes, nil
}

// executeBatchSafe is the per-user isolation boundary: every failure mode of
// a batch, NotEnoughPerms included, becomes a recorded outcome rather than an
// error that could stop the fan-out.
func (e *Executor) executeBatchSafe(ctx context.Context, signals []models.Signal, user models.User) (outcome models.UserOutcome) {
	defer func() {
		if r := recover(); r != nil {
			err := &Error{
				Kind: KindUnclassified,
				Msg:  fmt.Sprintf("panic while executing batch for %s: %v", user.Username, r),
			}
			e.log.Error("user batch panicked", "user", user.Username, "err", err)
			outcome = models.UserOutcome{OK: false, Error: err.Error()}
		}
	}()

	batch, err := e.ExecuteBatch(ctx, signals, user)
	if err != nil {
		e.log.Warn("user batch failed",
			"user", user.Username,
			"kind", string(KindOf(err)),
			"err", err)
		return models.UserOutcome{OK: false, Error: err.Error()}
	}
	return models.UserOutcome{OK: true, Signals: batch}
}
