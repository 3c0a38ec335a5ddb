package database

import (
	"errors"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// Open connects to MySQL, retrying while the database container starts up.
// The returned handle is owned by the caller and passed to repositories explicitly.
func Open(cfg config.DatabaseConfig, dev bool) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
	if dev {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       cfg.DSN(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), gormCfg)
		if err == nil {
			if cfg.AutoMigrate {
				if err := AutoMigrate(db); err != nil {
					return nil, err
				}
			}
			log.Infof("[Database] connected to %s:%s/%s", cfg.Host, cfg.Port, cfg.Name)
			return db, nil
		}

		log.Warnf("[Database] failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("connect database: %w", err)
}

// Models lists every table owned by the service.
func Models() []any {
	return []any{
		&models.User{},
		&models.Deadline{},
		&models.Checklist{},
		&models.ChecklistItem{},
		&models.PaymentLog{},
		&models.EmailDraft{},
		&models.BillingSubscription{},
		&models.BillingWebhookEvent{},
		&models.TelemetryFeedback{},
	}
}

// AutoMigrate creates or updates the schema from the models. Production uses
// cmd/migrate; this is for local development and tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique-constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// Ping checks the underlying connection.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
