package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

// Key layout, kept compatible with the original deployment:
//
//	users DB:   "users" set of usernames, one hash per username
//	signals DB: "spots" set of signal ids, one hash per signal id,
//	            "signal_execution_enrolled_users" set of usernames
const (
	usersKey    = "users"
	spotsKey    = "spots"
	enrolledKey = "signal_execution_enrolled_users"
)

const timeLayout = "2006-01-02T15:04:05"

// Store implements store.Directory and store.SignalStore over two logical
// Redis databases: one holding user records, one holding signal records and
// the enrollment set.
type Store struct {
	users   *redis.Client
	signals *redis.Client
}

// Options configures the Redis connection.
type Options struct {
	Addr      string
	Password  string
	UsersDB   int
	SignalsDB int
}

// NewStore connects to Redis and verifies the connection with a ping.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	users := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.UsersDB})
	signals := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.SignalsDB})

	if err := users.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Store{users: users, signals: signals}, nil
}

// Close releases both connections.
func (s *Store) Close() error {
	if err := s.users.Close(); err != nil {
		return err
	}
	return s.signals.Close()
}

// EnrolledUsers implements store.Directory.
func (s *Store) EnrolledUsers(ctx context.Context) ([]models.User, error) {
	usernames, err := s.signals.SMembers(ctx, enrolledKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled users: %w", err)
	}

	users := make([]models.User, 0, len(usernames))
	for _, username := range usernames {
		fields, err := s.users.HGetAll(ctx, username).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load user %s: %w", username, err)
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("enrolled user %s has no record", username)
		}
		users = append(users, userFromFields(username, fields))
	}
	return users, nil
}

// SaveUser stores a user record and registers the username.
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	pipe := s.users.TxPipeline()
	pipe.SAdd(ctx, usersKey, user.Username)
	pipe.HSet(ctx, user.Username, userFields(user))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.Username, err)
	}
	return nil
}

// EnrollUser implements store.SignalStore.
func (s *Store) EnrollUser(ctx context.Context, username string) error {
	if err := s.signals.SAdd(ctx, enrolledKey, username).Err(); err != nil {
		return fmt.Errorf("failed to enroll user %s: %w", username, err)
	}
	return nil
}

// UnenrollUser implements store.SignalStore.
func (s *Store) UnenrollUser(ctx context.Context, username string) error {
	if err := s.signals.SRem(ctx, enrolledKey, username).Err(); err != nil {
		return fmt.Errorf("failed to unenroll user %s: %w", username, err)
	}
	return nil
}

// SaveSignals implements store.SignalStore. Saving an existing id overwrites
// the record, which also serves as update.
func (s *Store) SaveSignals(ctx context.Context, signals []models.Signal) error {
	pipe := s.signals.TxPipeline()
	for i := range signals {
		signal := &signals[i]
		pipe.SAdd(ctx, spotsKey, signal.ID)
		pipe.HSet(ctx, signal.ID, signalFields(signal))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save signals: %w", err)
	}
	return nil
}

// RemoveSignals implements store.SignalStore.
func (s *Store) RemoveSignals(ctx context.Context, signals []models.Signal) error {
	pipe := s.signals.TxPipeline()
	for i := range signals {
		pipe.SRem(ctx, spotsKey, signals[i].ID)
		pipe.Del(ctx, signals[i].ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove signals: %w", err)
	}
	return nil
}

// ActiveSignals implements store.SignalStore.
func (s *Store) ActiveSignals(ctx context.Context) ([]models.Signal, error) {
	ids, err := s.signals.SMembers(ctx, spotsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list signal ids: %w", err)
	}

	signals := make([]models.Signal, 0, len(ids))
	for _, id := range ids {
		fields, err := s.signals.HGetAll(ctx, id).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load signal %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue // id in the set but hash expired or deleted
		}
		signal, err := signalFromFields(id, fields)
		if err != nil {
			return nil, err
		}
		signals = append(signals, signal)
	}
	return signals, nil
}

// Decimal and time fields are stored as strings; Redis hashes hold strings
// only and string decimals round-trip exactly.

func userFields(user *models.User) map[string]string {
	return map[string]string{
		"username":           user.Username,
		"email":              user.Email,
		"is_admin":           strconv.FormatBool(user.IsAdmin),
		"disabled":           strconv.FormatBool(user.Disabled),
		"binance_api_key":    user.APIKey,
		"binance_api_secret": user.APISecret,
	}
}

func userFromFields(username string, fields map[string]string) models.User {
	isAdmin, _ := strconv.ParseBool(fields["is_admin"])
	disabled, _ := strconv.ParseBool(fields["disabled"])
	return models.User{
		Username:  username,
		Email:     fields["email"],
		IsAdmin:   isAdmin,
		Disabled:  disabled,
		APIKey:    fields["binance_api_key"],
		APISecret: fields["binance_api_secret"],
	}
}

func signalFields(signal *models.Signal) map[string]string {
	return map[string]string{
		"spot_id":       signal.ID,
		"pair":          signal.Pair,
		"symbol":        signal.Symbol,
		"buy_price":     signal.BuyPrice.String(),
		"stop_price":    signal.StopPrice.String(),
		"tp1":           signal.TP1.String(),
		"tp2":           signal.TP2.String(),
		"tp3":           signal.TP3.String(),
		"risk":          signal.Risk,
		"spot_type":     signal.Type,
		"chart_url":     signal.ChartURL,
		"coin_logo_url": signal.CoinLogoURL,
		"tp_done":       strconv.Itoa(signal.TPDone),
		"total_tp":      strconv.Itoa(signal.TotalTP),
		"created_at":    signal.CreatedAt.Format(timeLayout),
	}
}

func signalFromFields(id string, fields map[string]string) (models.Signal, error) {
	signal := models.Signal{
		ID:          id,
		Pair:        fields["pair"],
		Symbol:      fields["symbol"],
		Risk:        fields["risk"],
		Type:        fields["spot_type"],
		ChartURL:    fields["chart_url"],
		CoinLogoURL: fields["coin_logo_url"],
	}

	for name, dst := range map[string]*decimal.Decimal{
		"buy_price":  &signal.BuyPrice,
		"stop_price": &signal.StopPrice,
		"tp1":        &signal.TP1,
		"tp2":        &signal.TP2,
		"tp3":        &signal.TP3,
	} {
		value, err := decimal.NewFromString(fields[name])
		if err != nil {
			return models.Signal{}, fmt.Errorf("signal %s: failed to parse %s %q: %w", id, name, fields[name], err)
		}
		*dst = value
	}

	signal.TPDone, _ = strconv.Atoi(fields["tp_done"])
	signal.TotalTP, _ = strconv.Atoi(fields["total_tp"])
	if raw := fields["created_at"]; raw != "" {
		createdAt, err := time.Parse(timeLayout, raw)
		if err != nil {
			return models.Signal{}, fmt.Errorf("signal %s: failed to parse created_at %q: %w", id, raw, err)
		}
		signal.CreatedAt = createdAt
	}
	return signal, nil
}
