package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает участника маркетплейса. Роль задаётся при регистрации:
// buyer покупает работы мастеров, seller выставляет их, admin разбирает
// споры и проводит возвраты средств.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Blocked сообщает, заблокирован ли аккаунт. Заблокированный пользователь
// не проходит логин.
func (u *User) Blocked() bool {
	return !u.IsActive
}

// Session представляет выданный refresh токен. При обновлении токен
// ротируется: запись заменяется новой, а повтор старого токена отклоняется.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
