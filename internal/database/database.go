// Package database 提供数据库连接、事务与迁移功能。
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// 只注册 mysql 驱动，后续通过 sql.Open("mysql", dsn) 使用
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/MorseWayne/content_shop/internal/config"
)

// DB 封装数据库连接
type DB struct {
	*sql.DB
	logger *zap.Logger
	dsn    string
}

// New 创建数据库连接
func New(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	dsn := cfg.Database.DSN()

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	return &DB{DB: sqlDB, logger: logger, dsn: dsn}, nil
}

// Wrap 用已有连接构造 DB（测试中配合 sqlmock 使用）
func Wrap(sqlDB *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: sqlDB, logger: logger}
}

// WithTx 在事务中执行 fn，fn 返回错误或 panic 时回滚
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			db.logger.Error("rollback tx failed", zap.Error(rbErr))
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// withMigrator 打开独立连接执行迁移操作，出错时不影响主连接池
func (db *DB) withMigrator(dir string, fn func(m *migrate.Migrate) error) error {
	conn, err := sql.Open("mysql", db.dsn+"&multiStatements=true")
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer conn.Close()

	driver, err := mysql.WithInstance(conn, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("mysql migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "mysql", driver)
	if err != nil {
		return fmt.Errorf("load migrations from %s: %w", dir, err)
	}
	defer m.Close()

	return fn(m)
}

// cleanVersion 返回当前版本，库处于脏状态时报错；未执行过任何迁移时版本为 0
func cleanVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("migration version %d is dirty, fix it and force a version", v)
	}
	return v, nil
}

// migrateWith 在干净状态下执行 step，并记录前后版本
func (db *DB) migrateWith(dir, op string, step func(m *migrate.Migrate) error) error {
	return db.withMigrator(dir, func(m *migrate.Migrate) error {
		from, err := cleanVersion(m)
		if err != nil {
			return err
		}
		if err := step(m); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				db.logger.Info("schema unchanged", zap.String("op", op), zap.Uint("version", from))
				return nil
			}
			return fmt.Errorf("migrate %s: %w", op, err)
		}
		to, err := cleanVersion(m)
		if err != nil {
			return err
		}
		db.logger.Info("schema migrated", zap.String("op", op),
			zap.Uint("from_version", from), zap.Uint("to_version", to))
		return nil
	})
}

// RunMigrations 应用全部未执行的迁移，服务启动时调用
func (db *DB) RunMigrations(dir string) error {
	return db.migrateWith(dir, "up", (*migrate.Migrate).Up)
}

// MigrateDown 回滚 steps 个版本
func (db *DB) MigrateDown(dir string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("invalid rollback steps: %d", steps)
	}
	return db.migrateWith(dir, "down", func(m *migrate.Migrate) error {
		return m.Steps(-steps)
	})
}

func (db *DB) MigrateToVersion(dir string, version uint) error {
	return db.migrateWith(dir, "goto", func(m *migrate.Migrate) error {
		return m.Migrate(version)
	})
}

// Version 返回当前迁移版本与脏状态
func (db *DB) Version(dir string) (version uint, dirty bool, err error) {
	err = db.withMigrator(dir, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		return verr
	})
	return version, dirty, err
}

// ForceMigrationVersion 强制写入版本号并清除脏标记，不执行任何脚本
func (db *DB) ForceMigrationVersion(dir string, version uint) error {
	return db.withMigrator(dir, func(m *migrate.Migrate) error {
		db.logger.Warn("forcing migration version", zap.Uint("version", version))
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		return nil
	})
}
