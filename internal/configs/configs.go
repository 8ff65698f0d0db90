package configs

type Config struct {
	// 执行参数
	Execution ExecutionConfig `json:"execution" yaml:"execution"`

	// Redis 用户/信号存储
	Redis RedisConfig `json:"redis" yaml:"redis"`

	// 执行报告归档 (optional; empty conn string disables it)
	Database DatabaseConfig `json:"database" yaml:"database"`

	// 执行报告推送 (optional; empty URL disables it)
	WebhookURL string `json:"webhook_url" yaml:"webhook_url"`

	// 交易所配置
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`
}

type ExecutionConfig struct {
	QuoteSpend  string  `json:"quote_spend" yaml:"quote_spend"`   // quote units per signal, e.g. "11"
	Tolerance   float64 `json:"tolerance" yaml:"tolerance"`       // 0-1, distance toward tp1 still accepted
	Workers     int     `json:"workers" yaml:"workers"`           // concurrent users
	CallTimeout string  `json:"call_timeout" yaml:"call_timeout"` // per exchange call, e.g. "10s"
}

type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	Password  string `json:"password" yaml:"password"`
	UsersDB   int    `json:"users_db" yaml:"users_db"`
	SignalsDB int    `json:"signals_db" yaml:"signals_db"`
}

type DatabaseConfig struct {
	ConnStr string `json:"conn_str" yaml:"conn_str"` // postgres connection string
}

type ExchangeConfig struct {
	Testnet bool `json:"testnet" yaml:"testnet"`
}
