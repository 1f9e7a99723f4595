package db

import (
	"fmt"
	"strings"

	"rightguard/internal/alert"
	"rightguard/internal/auth"
	"rightguard/internal/guide"
	"rightguard/internal/incident"
	"rightguard/internal/jobs"
	"rightguard/internal/logging"
	"rightguard/internal/payment"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens a postgres DSN ("postgres://...", "host=...") or a sqlite
// database ("sqlite://path" or "sqlite://:memory:").
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme")
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if gdb.Dialector.Name() == "sqlite" {
		// sqlite serialises writers; one connection also keeps ":memory:" a single database.
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("connected to database", zap.String("dialect", gdb.Dialector.Name()))
	return gdb, nil
}

// Models lists every table owned by the server.
func Models() []any {
	return []any{
		&auth.User{},
		&guide.Guide{},
		&incident.Record{},
		&alert.Log{},
		&payment.PurchaseLog{},
		&jobs.Job{},
	}
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return err
	}

	stmts := []string{
		`create index if not exists idx_guides_state_lang on legal_guides(state, language, created_at);`,
		`create index if not exists idx_records_user_created on incident_records(user_id, created_at desc);`,
		`create index if not exists idx_alerts_user_created on alert_logs(user_id, created_at desc);`,
		`create index if not exists idx_alerts_incident on alert_logs(incident_record_id);`,
		`create index if not exists idx_purchases_user on purchase_logs(user_id, created_at desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
