package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration 一个嵌入的 SQL 迁移文件
type Migration struct {
	Version   string
	Applied   bool
	AppliedAt *time.Time
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version     TEXT PRIMARY KEY,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// migrationVersions 返回按文件名排序的迁移版本（去掉 .sql 后缀）
func migrationVersions() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(e.Name(), ".sql"))
	}
	sort.Strings(versions)
	return versions, nil
}

// Migrate 依次执行尚未应用的迁移；每个文件在单独事务内执行并登记到 schema_migrations
// 返回本次新应用的版本
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) ([]string, error) {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	status, err := MigrationStatus(ctx, db)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0)
	for _, m := range status {
		if m.Applied {
			continue
		}
		body, err := migrationFS.ReadFile("migrations/" + m.Version + ".sql")
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", m.Version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return applied, fmt.Errorf("begin migration %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("apply migration %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
			_ = tx.Rollback()
			return applied, fmt.Errorf("record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return applied, fmt.Errorf("commit migration %s: %w", m.Version, err)
		}

		logger.Info("Migration applied", zap.String("version", m.Version))
		applied = append(applied, m.Version)
	}
	return applied, nil
}

// MigrationStatus 列出所有嵌入迁移及其应用状态
func MigrationStatus(ctx context.Context, db *sql.DB) ([]Migration, error) {
	versions, err := migrationVersions()
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	appliedAt := map[string]time.Time{}
	for rows.Next() {
		var v string
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			return nil, err
		}
		appliedAt[v] = at
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Migration, 0, len(versions))
	for _, v := range versions {
		m := Migration{Version: v}
		if at, ok := appliedAt[v]; ok {
			m.Applied = true
			m.AppliedAt = &at
		}
		out = append(out, m)
	}
	return out, nil
}
