// Package sqlite 基于 SQLite 的单机产物存储
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	_ "modernc.org/sqlite"

	"novel-planner/internal/domain/entity"
	"novel-planner/internal/domain/repository"
)

var tracer = otel.Tracer("sqlite")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS artifacts (
    project_id TEXT NOT NULL,
    key        TEXT NOT NULL,
    kind       TEXT NOT NULL,
    version    INTEGER NOT NULL DEFAULT 1,
    content    TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (project_id, key)
);
CREATE INDEX IF NOT EXISTS idx_artifacts_kind ON artifacts (kind, created_at);
`

var (
	_ repository.ArtifactStore = (*Store)(nil)
	_ repository.Transactor    = (*Store)(nil)
)

// Store SQLite 产物存储，同时提供事务
type Store struct {
	db *sql.DB
}

// querier 普通连接与事务共用的查询接口
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open 打开或创建数据库文件并建表
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve sqlite path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("ensure sqlite dir: %w", err)
		}
		dsn = "file:" + absPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// 单连接串行写入，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(repository.TxKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// WithTransaction 在事务中执行操作，已在事务中时直接复用
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(repository.TxKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, repository.TxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Save 同键覆盖内容并递增版本号
func (s *Store) Save(ctx context.Context, projectID, key string, kind entity.ArtifactKind, v any) error {
	ctx, span := tracer.Start(ctx, "sqlite.Store.Save")
	defer span.End()

	art, err := entity.NewArtifact(projectID, key, kind, v)
	if err != nil {
		return err
	}
	now := formatTime(entity.Now())
	_, err = s.q(ctx).ExecContext(ctx, `
INSERT INTO artifacts (project_id, key, kind, version, content, created_at, updated_at)
VALUES (?, ?, ?, 1, ?, ?, ?)
ON CONFLICT (project_id, key) DO UPDATE SET
    kind = excluded.kind,
    content = excluded.content,
    version = artifacts.version + 1,
    updated_at = excluded.updated_at`,
		art.ProjectID, art.Key, string(art.Kind), string(art.Content), now, now)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save %s artifact: %w", kind, err)
	}
	return nil
}

// Load 读取产物内容
func (s *Store) Load(ctx context.Context, projectID, key string, out any) (bool, error) {
	ctx, span := tracer.Start(ctx, "sqlite.Store.Load")
	defer span.End()

	row := s.q(ctx).QueryRowContext(ctx, `
SELECT project_id, key, kind, version, content, created_at, updated_at
FROM artifacts WHERE project_id = ? AND key = ?`, projectID, key)
	art, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to load artifact %s: %w", key, err)
	}
	return true, art.Decode(out)
}

// List 按类型列出项目产物
func (s *Store) List(ctx context.Context, projectID string, kind entity.ArtifactKind) ([]*entity.Artifact, error) {
	ctx, span := tracer.Start(ctx, "sqlite.Store.List")
	defer span.End()

	rows, err := s.q(ctx).QueryContext(ctx, `
SELECT project_id, key, kind, version, content, created_at, updated_at
FROM artifacts WHERE project_id = ? AND kind = ? ORDER BY key ASC`, projectID, string(kind))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list %s artifacts: %w", kind, err)
	}
	return collect(rows)
}

// ListProjects 按创建时间倒序分页列出项目
func (s *Store) ListProjects(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.Artifact], error) {
	ctx, span := tracer.Start(ctx, "sqlite.Store.ListProjects")
	defer span.End()

	q := s.q(ctx)
	var total int64
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM artifacts WHERE kind = ?`, string(entity.ArtifactProject)).Scan(&total); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
SELECT project_id, key, kind, version, content, created_at, updated_at
FROM artifacts WHERE kind = ?
ORDER BY created_at DESC, project_id ASC
LIMIT ? OFFSET ?`, string(entity.ArtifactProject), pagination.Limit(), pagination.Offset())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	arts, err := collect(rows)
	if err != nil {
		return nil, err
	}
	return repository.NewPagedResult(arts, total, pagination), nil
}

// Ping 健康检查
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭数据库
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row scanner) (*entity.Artifact, error) {
	var (
		art                  entity.Artifact
		kind, content        string
		createdAt, updatedAt string
	)
	if err := row.Scan(&art.ProjectID, &art.Key, &kind, &art.Version, &content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	art.Kind = entity.ArtifactKind(kind)
	art.Content = []byte(content)

	var err error
	if art.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if art.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &art, nil
}

func collect(rows *sql.Rows) ([]*entity.Artifact, error) {
	defer rows.Close()
	var arts []*entity.Artifact
	for rows.Next() {
		art, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		arts = append(arts, art)
	}
	return arts, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
