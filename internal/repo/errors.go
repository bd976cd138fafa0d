package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL 约束错误码
const (
	mysqlErrDuplicateEntry = 1062
	// 删除或更新仍被外键引用的行
	mysqlErrRowIsReferenced = 1451
	// 插入或更新时引用的父行不存在
	mysqlErrNoReferencedRow = 1452
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	// ErrDuplicateKey 其他唯一键冲突
	ErrDuplicateKey = errors.New("duplicate key")

	ErrRowReferenced    = errors.New("row is still referenced")
	ErrMissingReference = errors.New("referenced row does not exist")
)

// querier 同时由 *sql.DB 与 *sql.Tx 实现，仓储可在事务内外复用同一套 SQL
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner 抽象 *sql.Row 与 *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// mapConstraint 将唯一键与外键约束错误映射为仓储层错误，其他错误原样返回
func mapConstraint(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return err
	}
	switch myErr.Number {
	case mysqlErrDuplicateEntry:
		switch {
		case strings.Contains(myErr.Message, "uk_users_username"):
			return ErrDuplicateUsername
		case strings.Contains(myErr.Message, "uk_users_email"):
			return ErrDuplicateEmail
		}
		return ErrDuplicateKey
	case mysqlErrRowIsReferenced:
		return ErrRowReferenced
	case mysqlErrNoReferencedRow:
		return ErrMissingReference
	}
	return err
}
