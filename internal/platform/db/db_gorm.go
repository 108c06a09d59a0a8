// Package db は各リポジトリが使う gorm 接続を開きます。
package db

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultSQLitePath = "./habits.db"
	connectTimeout    = 60 * time.Second
)

// retryInterval は接続リトライの待機時間です。
var retryInterval = 3 * time.Second

// Config はリレーショナルストアの接続設定です。
type Config struct {
	Driver   string // "sqlite" (default) or "postgres"
	Path     string // sqlite file path, ":memory:" for an in-memory database
	User     string
	Password string
	Name     string
	Host     string
	Port     string
	SSLMode  string
}

// Opener は DSN から gorm 接続を開きます。テストで差し替えます。
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Driver:   strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER"))),
		Path:     os.Getenv("DB_PATH"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Path == "" {
		cfg.Path = defaultSQLitePath
	}
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return cfg
}

// BuildDSN は cfg からドライバ別の接続文字列を組み立てます。
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)
	}
	// foreign_keys は ON DELETE CASCADE のために必須
	return cfg.Path + "?_foreign_keys=on&_busy_timeout=5000"
}

// ConnectWithRetry は成功するか timeout を過ぎるまで open を繰り返します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open は cfg のストアに接続します。
func Open(cfg Config) (*gorm.DB, error) {
	db, err := ConnectWithRetry(BuildDSN(cfg), connectTimeout, openerFor(cfg.Driver))
	if err != nil {
		return nil, err
	}

	if cfg.Driver != DriverPostgres && strings.HasPrefix(cfg.Path, ":memory:") {
		// in-memory sqlite は接続ごとに別DBになるため1接続に固定
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate は models のテーブルを作成・更新します。失敗したら起動を中止してください。
func Migrate(db *gorm.DB, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func openerFor(driver string) Opener {
	return func(dsn string) (*gorm.DB, error) {
		var dialector gorm.Dialector
		if driver == DriverPostgres {
			dialector = postgres.Open(dsn)
		} else {
			dialector = sqlite.Open(dsn)
		}
		return gorm.Open(dialector, gormConfig())
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		// ユニーク制約違反を gorm.ErrDuplicatedKey に変換する
		TranslateError: true,
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	}
}
