package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSignal() Signal {
	return Signal{
		ID:        "spot-1",
		Pair:      "BTCUSDT",
		Symbol:    "BTC",
		BuyPrice:  decimal.NewFromInt(100),
		StopPrice: decimal.NewFromInt(90),
		TP1:       decimal.NewFromInt(110),
	}
}

func TestSignalValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Signal)
		wantErr string
	}{
		{name: "valid", mutate: func(s *Signal) {}},
		{name: "missing id", mutate: func(s *Signal) { s.ID = "" }, wantErr: "no id"},
		{name: "missing pair", mutate: func(s *Signal) { s.Pair = "" }, wantErr: "required"},
		{name: "symbol equals pair", mutate: func(s *Signal) { s.Symbol = "BTCUSDT" }, wantErr: "proper prefix"},
		{name: "symbol not a prefix", mutate: func(s *Signal) { s.Symbol = "ETH" }, wantErr: "proper prefix"},
		{name: "negative stop", mutate: func(s *Signal) { s.StopPrice = decimal.NewFromInt(-1) }, wantErr: "positive"},
		{name: "stop equals buy", mutate: func(s *Signal) { s.StopPrice = decimal.NewFromInt(100) }, wantErr: "not below buy"},
		{name: "stop above buy", mutate: func(s *Signal) { s.StopPrice = decimal.NewFromInt(150) }, wantErr: "not below buy"},
		{name: "buy equals tp1", mutate: func(s *Signal) { s.BuyPrice = decimal.NewFromInt(110) }, wantErr: "not below tp1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := validSignal()
			tt.mutate(&signal)

			err := signal.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSignalQuote(t *testing.T) {
	tests := []struct {
		pair   string
		symbol string
		want   string
	}{
		{pair: "BTCUSDT", symbol: "BTC", want: "USDT"},
		{pair: "ETHBUSD", symbol: "ETH", want: "BUSD"},
		{pair: "RUNEUSDT", symbol: "RUNE", want: "USDT"},
	}

	for _, tt := range tests {
		signal := Signal{Pair: tt.pair, Symbol: tt.symbol}
		assert.Equal(t, tt.want, signal.Quote())
	}
}

func TestUserCredentialsNotMarshalled(t *testing.T) {
	user := User{Username: "alice", APIKey: "key", APISecret: "secret"}
	raw, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "key")
	assert.NotContains(t, string(raw), "secret")
}
