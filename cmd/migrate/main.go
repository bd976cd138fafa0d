// Package main 提供数据库迁移管理的命令行工具
// 基于 golang-migrate，支持 up / down / goto / force / status
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/MorseWayne/content_shop/internal/config"
	"github.com/MorseWayne/content_shop/internal/database"
	"github.com/MorseWayne/content_shop/internal/logger"
)

const usage = `Usage: migrate -action=[up|down|goto|force|status] [options]

Examples:
  migrate -action=up                 # 执行全部未应用的迁移
  migrate -action=down -steps=1      # 回滚一步
  migrate -action=goto -target=3     # 迁移到指定版本
  migrate -action=force -target=2    # 清除 dirty 状态并强制设置版本
  migrate -action=status             # 查看当前版本
`

func main() {
	var (
		action = flag.String("action", "up", "migration action: up, down, goto, force, status")
		steps  = flag.Int("steps", 1, "number of steps for down migration")
		target = flag.Uint("target", 0, "target version for goto or force")
		dir    = flag.String("dir", "", "migrations directory (defaults to MIGRATIONS_DIR)")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dir != "" {
		cfg.Migrations.Dir = *dir
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "migrate", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.New(cfg, lg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := run(db, cfg.Migrations.Dir, *action, *steps, *target, lg); err != nil {
		lg.Error("migration failed", zap.String("action", *action), zap.Error(err))
		os.Exit(1)
	}
}

func run(db *database.DB, dir, action string, steps int, target uint, lg *zap.Logger) error {
	switch action {
	case "up":
		return db.RunMigrations(dir)
	case "down":
		if steps <= 0 {
			return fmt.Errorf("steps must be positive, got %d", steps)
		}
		return db.MigrateDown(dir, steps)
	case "goto":
		if target == 0 {
			return fmt.Errorf("target version must be specified")
		}
		return db.MigrateToVersion(dir, target)
	case "force":
		// 允许 0，表示回到未迁移状态
		lg.Warn("forcing migration version, dirty state will be cleared", zap.Uint("target", target))
		return db.ForceMigrationVersion(dir, target)
	case "status":
		version, dirty, err := db.Version(dir)
		if err != nil {
			return err
		}
		lg.Info("migration status", zap.Uint("version", version), zap.Bool("dirty", dirty))
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown action %q", action)
	}
}
