package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"shop-backoffice/internal/infrastructure/config"

	_ "github.com/lib/pq"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	migrationsDir := flag.String("dir", "db/migrations", "path to migrations directory")
	flag.Parse()

	cfg, err := config.LoadFromFile(*cfgPath)
	if err != nil {
		log.Fatalf("讀取組態失敗: %v", err)
	}
	if cfg.DB.DSN == "" {
		log.Fatal("config.db.dsn 未設定，無法執行 migration")
	}

	files, err := collectMigrations(*migrationsDir)
	if err != nil {
		log.Fatalf("%v", err)
	}

	pool, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		log.Fatalf("連線資料庫失敗: %v", err)
	}
	defer pool.Close()

	for _, f := range files {
		if err := applyMigration(pool, f); err != nil {
			log.Fatalf("執行 %s 失敗: %v", filepath.Base(f), err)
		}
		log.Printf("已套用 migration: %s", filepath.Base(f))
	}
	fmt.Printf("Migration 完成（共 %d 個檔案）\n", len(files))
}

func collectMigrations(dir string) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("解析 migrations 路徑失敗: %w", err)
	}
	if _, err := os.Stat(absDir); err != nil {
		return nil, fmt.Errorf("migrations 目錄不存在: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(absDir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("讀取 migrations 失敗: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("在 %s 找不到任何 .sql migration 檔案", absDir)
	}
	sort.Strings(files)
	return files, nil
}

// applyMigration 在單一交易內執行整個 migration 檔案。
func applyMigration(pool *sql.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("讀取檔案: %w", err)
	}
	tx, err := pool.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(string(raw)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
