package backend

import (
	"fmt"
	"time"

	"finanzas/internal/config"
	gsheet "finanzas/internal/sheets/google"
)

// Config holds configuration for wiring the ledger.
type Config struct {
	SQLiteDBPath string

	Lock     LockType
	RedisURL string

	OpTimeout  time.Duration
	MaxCatchUp int

	SummaryCacheSize int
	SummaryCacheTTL  time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sheets is used only when SpreadsheetID is set; otherwise the mirror
	// is kept in memory.
	Sheets gsheet.Config
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	lockType := LockType(appConfig.LockBackend)
	if !lockType.IsValid() {
		return Config{}, fmt.Errorf("invalid lock backend in config: %s", appConfig.LockBackend)
	}

	return Config{
		SQLiteDBPath: appConfig.SQLiteDBPath,

		Lock:     lockType,
		RedisURL: appConfig.RedisURL,

		OpTimeout:  appConfig.LedgerOpTimeout,
		MaxCatchUp: appConfig.SubscriptionMaxCatchUp,

		SummaryCacheSize: 256,
		SummaryCacheTTL:  5 * time.Minute,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Sheets: gsheet.Config{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			SheetName:       appConfig.GoogleSheetName,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
			Endpoint:        appConfig.GoogleSheetsEndpoint,
		},
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}
	if !c.Lock.IsValid() {
		return fmt.Errorf("invalid lock type: %s", c.Lock)
	}
	if c.Lock == RedisLock && c.RedisURL == "" {
		return fmt.Errorf("Redis URL is required for redis locks")
	}
	return nil
}

// GetLockTypes returns all valid lock types
func GetLockTypes() []LockType {
	return []LockType{LocalLock, RedisLock}
}
