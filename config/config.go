package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel          string `env:"LOG_LEVEL"`
	Postgres          Postgres
	Telegram          Telegram
	Redis             Redis
	API               API
	Cache             Cache
	Jobs              Jobs
	GoogleDrive       GoogleDrive
	Simulation        Simulation
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION"`
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME"`
	MigrationDir    string `env:"PG_MIGRATION_DIR"`
}

type Telegram struct {
	Token            string        `env:"TELEGRAM_TOKEN"`
	UpdTimeout       time.Duration `env:"TELEGRAM_UPD_TIMEOUT"`
	FileLimitInBytes int           `env:"TELEGRAM_FILE_LIMIT_IN_BYTES"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type API struct {
	Debug    bool          `env:"API_DEBUG"`
	Timeout  time.Duration `env:"API_TIMEOUT"`
	StooqApi StooqApi
}

type StooqApi struct {
	Url string `env:"STOOQ_API_URL"`
}

type Cache struct {
	SeriesExpiration      time.Duration `env:"CACHE_SERIES_EXPIRATION"`
	InstrumentsExpiration time.Duration `env:"CACHE_INSTRUMENTS_EXPIRATION"`
}

type Jobs struct {
	WarmupCryptoOnStart       bool          `env:"WARMUP_CRYPTO_ON_START"`
	RefreshMarketCapsInterval time.Duration `env:"REFRESH_MARKET_CAPS_JOB_INTERVAL"`
	DriveCleanupInterval      time.Duration `env:"DRIVE_CLEANUP_JOB_INTERVAL"`
}

type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE"`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL"`
}

type Simulation struct {
	StartDate          string `env:"SIM_START_DATE" envDefault:"2000-01-03"`
	StartCash          string `env:"SIM_START_CASH" envDefault:"10000.00"`
	SeriesStart        string `env:"SIM_SERIES_START" envDefault:"2000-01-03"`
	SeriesEnd          string `env:"SIM_SERIES_END" envDefault:"2025-10-31"`
	RecentTransactions int    `env:"SIM_RECENT_TRANSACTIONS" envDefault:"20"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
