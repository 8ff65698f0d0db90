package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
)

func TestSignalFieldsRoundTrip(t *testing.T) {
	signal := models.Signal{
		ID:          "spot-1",
		Pair:        "RUNEUSDT",
		Symbol:      "RUNE",
		BuyPrice:    decimal.RequireFromString("4.321"),
		StopPrice:   decimal.RequireFromString("3.9"),
		TP1:         decimal.RequireFromString("4.8"),
		TP2:         decimal.RequireFromString("5.2"),
		TP3:         decimal.RequireFromString("6"),
		Risk:        "high",
		Type:        "spot",
		ChartURL:    "https://charts.example/rune",
		CoinLogoURL: "https://logos.example/rune.png",
		TPDone:      1,
		TotalTP:     3,
		CreatedAt:   time.Date(2021, 9, 14, 18, 30, 0, 0, time.UTC),
	}

	got, err := signalFromFields(signal.ID, signalFields(&signal))
	require.NoError(t, err)

	assert.Equal(t, signal.ID, got.ID)
	assert.Equal(t, signal.Pair, got.Pair)
	assert.Equal(t, signal.Symbol, got.Symbol)
	assert.True(t, got.BuyPrice.Equal(signal.BuyPrice))
	assert.True(t, got.StopPrice.Equal(signal.StopPrice))
	assert.True(t, got.TP1.Equal(signal.TP1))
	assert.True(t, got.TP2.Equal(signal.TP2))
	assert.True(t, got.TP3.Equal(signal.TP3))
	assert.Equal(t, signal.Risk, got.Risk)
	assert.Equal(t, signal.Type, got.Type)
	assert.Equal(t, signal.TPDone, got.TPDone)
	assert.Equal(t, signal.TotalTP, got.TotalTP)
	assert.True(t, got.CreatedAt.Equal(signal.CreatedAt))
}

func TestSignalFromFields_BadDecimal(t *testing.T) {
	signal := models.Signal{ID: "spot-1", Pair: "BTCUSDT", Symbol: "BTC"}
	fields := signalFields(&signal)
	fields["buy_price"] = "not-a-price"

	_, err := signalFromFields("spot-1", fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buy_price")
}

func TestUserFieldsRoundTrip(t *testing.T) {
	user := models.User{
		Username:  "alice",
		Email:     "alice@example.com",
		IsAdmin:   true,
		Disabled:  false,
		APIKey:    "api-key",
		APISecret: "api-secret",
	}

	got := userFromFields(user.Username, userFields(&user))
	assert.Equal(t, user, got)
}

func TestUserFromFields_PythonBooleans(t *testing.T) {
	// Records written by the previous deployment store booleans as
	// "True"/"False".
	got := userFromFields("bob", map[string]string{
		"email":              "bob@example.com",
		"is_admin":           "True",
		"disabled":           "False",
		"binance_api_key":    "k",
		"binance_api_secret": "s",
	})
	assert.True(t, got.IsAdmin)
	assert.False(t, got.Disabled)
}

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, Options{Addr: addr, UsersDB: 14, SignalsDB: 15})
	require.NoError(t, err)
	defer store.Close()

	user := models.User{Username: "it-user", APIKey: "k", APISecret: "s"}
	require.NoError(t, store.SaveUser(ctx, &user))
	require.NoError(t, store.EnrollUser(ctx, user.Username))
	defer store.UnenrollUser(ctx, user.Username)

	enrolled, err := store.EnrolledUsers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, enrolled)

	signal := models.Signal{
		ID:        "it-spot",
		Pair:      "BTCUSDT",
		Symbol:    "BTC",
		BuyPrice:  decimal.NewFromInt(100),
		StopPrice: decimal.NewFromInt(90),
		TP1:       decimal.NewFromInt(110),
		CreatedAt: time.Now().Truncate(time.Second),
	}
	require.NoError(t, store.SaveSignals(ctx, []models.Signal{signal}))

	active, err := store.ActiveSignals(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, active)

	require.NoError(t, store.RemoveSignals(ctx, []models.Signal{signal}))
}
