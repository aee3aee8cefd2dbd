package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"pos-system/internal/domain"
)

// WaitstaffLogin signs a staff member in by display name and password.
// Both an unknown name and a wrong password come back as ErrBadCredentials
// so the login screen cannot be used to enumerate staff.
func (s *Store) WaitstaffLogin(ctx context.Context, name, password string) (domain.Session, error) {
	var w domain.Waitstaff
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role
		FROM waitstaff WHERE lower(name) = lower($1)`,
		strings.TrimSpace(name),
	).Scan(&w.ID, &w.Name, &w.Email, &w.PasswordHash, &w.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrBadCredentials
	}
	if err != nil {
		return domain.Session{}, classify(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(w.PasswordHash), []byte(password)) != nil {
		return domain.Session{}, domain.ErrBadCredentials
	}
	return domain.Session{UserID: w.ID, Email: w.Email, Name: w.Name, Role: w.Role}, nil
}

// ManagerLogin signs a manager in by email. The display name falls back to
// the mailbox part of the address when the account has none.
func (s *Store) ManagerLogin(ctx context.Context, email, password string) (domain.Session, error) {
	var w domain.Waitstaff
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role
		FROM waitstaff WHERE lower(email) = lower($1) AND role = 'GERENTE'`,
		strings.TrimSpace(email),
	).Scan(&w.ID, &w.Name, &w.Email, &w.PasswordHash, &w.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrBadCredentials
	}
	if err != nil {
		return domain.Session{}, classify(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(w.PasswordHash), []byte(password)) != nil {
		return domain.Session{}, domain.ErrBadCredentials
	}
	name := w.Name
	if name == "" {
		name = mailboxName(w.Email)
	}
	return domain.Session{UserID: w.ID, Email: w.Email, Name: name, Role: w.Role}, nil
}

// CreateWaitstaff registers a staff account. Only the hash is stored.
func (s *Store) CreateWaitstaff(ctx context.Context, name, email, password string, role domain.Role) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO waitstaff (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)`,
		strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email)), string(hash), string(role))
	return classify(err)
}

func mailboxName(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
