package user

import "time"

// Role はユーザーの役割を表す
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

// IsValid は既知の役割かを返す
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleParticipant
}

// User はユーザーエンティティを表す
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser は新しいユーザーを作成する（デフォルトは参加者）
func NewUser(fullName, email, passwordHash string) *User {
	now := time.Now()
	return &User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleParticipant,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsAdmin は管理者かを返す
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate はユーザーの検証を行う
func (u *User) Validate() error {
	if u.FullName == "" {
		return ErrFullNameRequired
	}
	if u.Email == "" {
		return ErrEmailRequired
	}
	if u.PasswordHash == "" {
		return ErrPasswordRequired
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
