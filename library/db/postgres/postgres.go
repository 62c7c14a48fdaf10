// Package postgres opens the shared PostgreSQL connections.
package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const pgCodeUniqueViolation = "23505"

// DB postgres db
type DB struct {
	DB *sql.DB
}

// DialInfo postgres dial info
type DialInfo struct {
	Addr,
	DBName,
	User,
	Pwd string
	Port int
}

// BuildDSN builds a PostgreSQL DSN for shared database clients.
func BuildDSN(dialInfo DialInfo) string {
	port := dialInfo.Port
	if port == 0 {
		port = 5432
	}

	return "host=" + dialInfo.Addr +
		" user=" + dialInfo.User +
		" password=" + dialInfo.Pwd +
		" dbname=" + dialInfo.DBName +
		" port=" + strconv.Itoa(port) +
		" sslmode=disable TimeZone=UTC"
}

// NewDB create a new postgres db
func NewDB(ctx context.Context, dialInfo DialInfo) (*DB, error) {
	dsn := BuildDSN(dialInfo)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "ping postgres")
	}

	// config db
	db.SetMaxIdleConns(6)
	db.SetMaxOpenConns(50)
	db.SetConnMaxLifetime(time.Hour)

	return &DB{DB: db}, nil
}

// Gorm wraps the opened connection into a gorm handle
func (d *DB) Gorm(logLevel gormLogger.LogLevel) (*gorm.DB, error) {
	gdb, err := gorm.Open(gormPostgres.New(gormPostgres.Config{
		Conn: d.DB,
	}), &gorm.Config{
		Logger:         newTruncatingParamsLogger(gormLogger.Default.LogMode(logLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open gorm")
	}

	return gdb, nil
}

// IsUniqueViolation reports whether err is a duplicated key error
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCodeUniqueViolation
	}

	// sqlite backs the unit tests
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
