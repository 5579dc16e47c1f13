package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"quadro-kanban/models"
	"quadro-kanban/session"
	"quadro-kanban/utilities"
)

var ErrUserNotFound = errors.New("usuário não encontrado")

// UserStore é o diretório local de usuários, preenchido no primeiro login
type UserStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

// CheckOrCreateUser garante que o usuário da sessão existe na tabela users
func (s *UserStore) CheckOrCreateUser(ctx context.Context, sess session.Session) (models.Usuario, error) {
	user, err := s.GetUser(ctx, sess.UserID)
	switch {
	case err == nil:
		utilities.LogDebug("Usuário %s encontrado no banco", sess.UserID)
		return user, nil
	case !errors.Is(err, ErrUserNotFound):
		return models.Usuario{}, err
	}

	utilities.LogInfo("Primeiro acesso para UID %s. Criando no banco...", sess.UserID)
	user = models.Usuario{
		FirebaseUID: sess.UserID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		CreatedAt:   s.now().UTC(),
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO users (firebase_uid, email, display_name, created_at)
		VALUES (:firebase_uid, :email, :display_name, :created_at)
		ON CONFLICT (firebase_uid) DO NOTHING`, user)
	if err != nil {
		return models.Usuario{}, fmt.Errorf("erro ao inserir usuário no DB: %w", err)
	}
	// outra requisição pode ter criado o usuário antes: o que vale é o que está no banco
	return s.GetUser(ctx, sess.UserID)
}

func (s *UserStore) GetUser(ctx context.Context, uid string) (models.Usuario, error) {
	var user models.Usuario
	err := s.db.GetContext(ctx, &user, s.db.Rebind(
		"SELECT firebase_uid, email, display_name, created_at FROM users WHERE firebase_uid = ?"), uid)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Usuario{}, fmt.Errorf("%w: %s", ErrUserNotFound, uid)
	}
	if err != nil {
		return models.Usuario{}, fmt.Errorf("erro ao buscar usuário no DB: %w", err)
	}
	return user, nil
}

// UpdateDisplayName altera o nome de exibição do usuário
func (s *UserStore) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		"UPDATE users SET display_name = ? WHERE firebase_uid = ?"), displayName, uid)
	if err != nil {
		return fmt.Errorf("erro ao atualizar usuário: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, uid)
	}
	return nil
}
