package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/suPer8Hu/companion-studio/internal/companion"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	sqlitePrefix = "sqlite:"

	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
)

// DefaultCategories is the lookup list a fresh database starts with.
var DefaultCategories = []string{
	"Famous People",
	"Movies & TV",
	"Musicians",
	"Games",
	"Animals",
	"Philosophy",
	"Scientists",
}

// Connect opens a MySQL connection, or SQLite when the DSN carries the
// "sqlite:" prefix (e.g. "sqlite:file:companions.db").
func Connect(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if rest, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		dialector = sqlite.Open(rest)
	} else {
		dialector = mysql.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(defaultMaxOpenConns)
	sqlDB.SetMaxIdleConns(defaultMaxIdleConns)
	sqlDB.SetConnMaxLifetime(defaultConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&companion.Category{}, &companion.Companion{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// SeedCategories inserts the named categories that do not exist yet and
// reports how many were created.
func SeedCategories(ctx context.Context, gdb *gorm.DB, names []string) (int, error) {
	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var cnt int64
		if err := gdb.WithContext(ctx).Model(&companion.Category{}).Where("name = ?", name).Count(&cnt).Error; err != nil {
			return created, fmt.Errorf("checking category %q: %w", name, err)
		}
		if cnt > 0 {
			continue
		}
		cat := companion.Category{ID: uuid.NewString(), Name: name}
		if err := gdb.WithContext(ctx).Create(&cat).Error; err != nil {
			return created, fmt.Errorf("seeding category %q: %w", name, err)
		}
		created++
	}
	return created, nil
}

func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
