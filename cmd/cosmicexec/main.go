package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yehya-dev/cosmic-crypto-webservice/internal/configs"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/engine"
	binanceExchange "github.com/yehya-dev/cosmic-crypto-webservice/internal/exchange/binance"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/models"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/notify"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/store"
	"github.com/yehya-dev/cosmic-crypto-webservice/internal/store/postgres"
	redisStore "github.com/yehya-dev/cosmic-crypto-webservice/internal/store/redis"
)

var (
	flagconf string

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.json", "config path, eg: -conf config.json")
}

func main() {
	flag.Parse()

	config := &configs.Config{}
	configFile, err := os.ReadFile(flagconf)
	if err != nil {
		log.Error("Error reading config file", "err", err)
		return
	}

	if err := json.Unmarshal(configFile, config); err != nil {
		log.Error("Error parsing config file", "err", err)
		return
	}

	params, err := executionParams(config.Execution)
	if err != nil {
		log.Error("Error in execution config", "err", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := redisStore.NewStore(ctx, redisStore.Options{
		Addr:      config.Redis.Addr,
		Password:  config.Redis.Password,
		UsersDB:   config.Redis.UsersDB,
		SignalsDB: config.Redis.SignalsDB,
	})
	if err != nil {
		log.Error("Error creating redis store", "err", err)
		return
	}
	defer storage.Close()

	log.Debug("init redis store")

	var sink store.ReportSink
	if config.Database.ConnStr != "" {
		pgSink, err := postgres.NewSink(config.Database.ConnStr)
		if err != nil {
			log.Error("Error creating report sink", "err", err)
			return
		}
		defer pgSink.Close()
		sink = pgSink

		log.Debug("init report sink")
	}

	dialer := binanceExchange.NewDialer(config.Exchange.Testnet)
	notifier := notify.NewNotifier(config.WebhookURL)
	executor := engine.NewExecutor(dialer, storage, params, log)

	log.Debug("init executor")

	signals, err := storage.ActiveSignals(ctx)
	if err != nil {
		log.Error("Error loading active signals", "err", err)
		return
	}
	if len(signals) == 0 {
		log.Info("no active signals, nothing to execute")
		return
	}

	report := &models.ExecutionReport{
		StartedAt: time.Now(),
		Signals:   signalIDs(signals),
	}

	users, err := executor.ExecuteForEnrolledUsers(ctx, signals)
	if err != nil {
		log.Error("Error executing signals", "err", err)
		return
	}
	report.Users = users
	report.FinishedAt = time.Now()

	log.Info("signals executed", "signals", len(signals), "users", len(users))

	if sink != nil {
		if err := sink.SaveReport(ctx, report); err != nil {
			log.Error("Error saving execution report", "err", err)
		}
	}
	if err := notifier.Push(ctx, report); err != nil {
		log.Error("Error pushing execution report", "err", err)
	}
}

func executionParams(cfg configs.ExecutionConfig) (engine.Params, error) {
	params := engine.Params{Workers: cfg.Workers}

	if cfg.QuoteSpend != "" {
		spend, err := decimal.NewFromString(cfg.QuoteSpend)
		if err != nil {
			return engine.Params{}, err
		}
		params.QuoteSpend = spend
	}
	if cfg.Tolerance != 0 {
		params.Tolerance = decimal.NewFromFloat(cfg.Tolerance)
	}
	if cfg.CallTimeout != "" {
		timeout, err := time.ParseDuration(cfg.CallTimeout)
		if err != nil {
			return engine.Params{}, err
		}
		params.CallTimeout = timeout
	}
	return params, nil
}

func signalIDs(signals []models.Signal) []string {
	ids := make([]string, 0, len(signals))
	for i := range signals {
		ids = append(ids, signals[i].ID)
	}
	return ids
}
