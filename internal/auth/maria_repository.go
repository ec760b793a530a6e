package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MariaConfig содержит настройки подключения к MariaDB
type MariaConfig struct {
	Host     string // например, localhost
	Port     int    // например, 3306
	Database string // например, game_gallery
	Username string // пользователь БД
	Password string // пароль БД
}

// MariaUserRepo реализует UserRepository для MariaDB.
// Уникальность username и email гарантируется UNIQUE KEY в схеме,
// поэтому гонка двух одинаковых регистраций даёт ровно один успех.
type MariaUserRepo struct {
	db *sql.DB
}

// NewMariaUserRepo создает новое подключение к MariaDB и возвращает репозиторий
func NewMariaUserRepo(cfg MariaConfig) (*MariaUserRepo, error) {
	// Устанавливаем значения по умолчанию
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	if cfg.Database == "" {
		cfg.Database = "game_gallery"
	}

	// Формируем DSN (Data Source Name)
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия соединения: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ошибка подключения к MariaDB: %w", err)
	}

	repo := &MariaUserRepo{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureSchema создает таблицу пользователей, если её нет.
// Уникальный ключ построен на username_lower, а не на отображаемом
// имени: уникальность регистронезависима и не зависит от collation.
func (m *MariaUserRepo) ensureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(64) NOT NULL,
			username_lower VARCHAR(64) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(60) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY username_unique (username_lower),
			UNIQUE KEY email_unique (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания схемы: %w", err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по email
func (m *MariaUserRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := m.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?",
		normalize(email))
	return scanUser(row)
}

// GetUserByID возвращает пользователя по id
func (m *MariaUserRepo) GetUserByID(ctx context.Context, id uint64) (*User, error) {
	row := m.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?", id)
	return scanUser(row)
}

// CreateUser вставляет нового пользователя. Дубликат username или email
// приводит к MySQL ошибке 1062, которую мы переводим в ErrUserExists.
func (m *MariaUserRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error) {
	res, err := m.db.ExecContext(ctx,
		"INSERT INTO users (username, username_lower, email, password_hash) VALUES (?, ?, ?, ?)",
		username, normalize(username), normalize(email), passwordHash)
	if err != nil {
		if isMariaDuplicate(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &User{
		ID:           uint64(id),
		Username:     username,
		Email:        normalize(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}

// DeleteUserByID удаляет пользователя. Отсутствующий id не считается ошибкой.
func (m *MariaUserRepo) DeleteUserByID(ctx context.Context, id uint64) error {
	_, err := m.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	return err
}

// Close закрывает соединение с базой
func (m *MariaUserRepo) Close() error {
	return m.db.Close()
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// isMariaDuplicate распознает ошибку нарушения уникального ключа (1062).
func isMariaDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Error 1062")
}
