package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/mdb-curator/internal/platform/envutil"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

type Config struct {
	DSN        string `yaml:"-"`
	SQLitePath string `yaml:"sqlite_path"`
	Silent     bool   `yaml:"-"`
}

// ConfigFromEnv overlays AUDIT_DB_DSN and AUDIT_SQLITE_PATH on base.
func ConfigFromEnv(base Config) Config {
	cfg := base
	cfg.DSN = envutil.String("AUDIT_DB_DSN", cfg.DSN)
	cfg.SQLitePath = envutil.String("AUDIT_SQLITE_PATH", cfg.SQLitePath)
	return cfg
}

// Enabled reports whether any audit database is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.DSN) != "" || strings.TrimSpace(c.SQLitePath) != ""
}

// Open connects to postgres when a DSN is set, otherwise to the sqlite file,
// and migrates the audit tables.
func Open(logg *logger.Logger, cfg Config) (*gorm.DB, error) {
	serviceLog := logg.With("service", "AuditDB")

	level := gormLogger.Warn
	if cfg.Silent {
		level = gormLogger.Silent
	}
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch {
	case strings.TrimSpace(cfg.DSN) != "":
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		serviceLog.Info("Connected audit store", "driver", "postgres")
	case strings.TrimSpace(cfg.SQLitePath) != "":
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.SQLitePath, err)
		}
		serviceLog.Info("Connected audit store", "driver", "sqlite", "path", cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("missing AUDIT_DB_DSN or AUDIT_SQLITE_PATH")
	}

	if err := AutoMigrateAll(db); err != nil {
		return nil, fmt.Errorf("migrate audit tables: %w", err)
	}
	return db, nil
}
