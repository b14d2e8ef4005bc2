package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"flash-sale-api/internal/model"
)

// OpenMySQL opens the accounts database connection pool.
func OpenMySQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql database: %w", err)
	}

	log.Printf("[Database] Connected to MySQL accounts database")
	return db, nil
}

// MySQLUserRepository implements UserRepository using MySQL.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQL user repository.
func NewMySQLUserRepository(db *sql.DB) (*MySQLUserRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		username VARCHAR(64) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'user',
		created_at DATETIME NOT NULL,
		UNIQUE KEY uniq_users_username (username),
		UNIQUE KEY uniq_users_email (email)
	)`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	return &MySQLUserRepository{db: db}, nil
}

// Create inserts a new user, mapping duplicate-key errors to the field that
// collided.
func (r *MySQLUserRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, u.ID, u.Username, u.Email,
		u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		if isMySQLDuplicate(err) {
			if strings.Contains(err.Error(), "uniq_users_email") {
				return model.ErrEmailTaken
			}
			return model.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID fetches a user by ID.
func (r *MySQLUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, username, email, password_hash, role, created_at FROM users WHERE id = ?`

	var u model.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email,
		&u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetByEmailOrUsername fetches a user by login identifier for credential checks.
func (r *MySQLUserRepository) GetByEmailOrUsername(ctx context.Context, identifier string) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, created_at
		FROM users
		WHERE email = ? OR username = ?
		LIMIT 1`

	var u model.User
	err := r.db.QueryRowContext(ctx, query, identifier, identifier).Scan(&u.ID,
		&u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUsernames resolves a batch of user IDs to usernames. IDs with no account
// are simply absent from the result.
func (r *MySQLUserRepository) GetUsernames(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT id, username FROM users WHERE id IN (` + placeholders + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string, len(ids))
	for rows.Next() {
		var id, username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		names[id] = username
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usernames: %w", err)
	}

	return names, nil
}

func isMySQLDuplicate(err error) bool {
	if mysqlErr, ok := err.(*mysql.MySQLError); ok {
		return mysqlErr.Number == 1062
	}
	return false
}

// Ensure MySQLUserRepository implements UserRepository
var _ UserRepository = (*MySQLUserRepository)(nil)
