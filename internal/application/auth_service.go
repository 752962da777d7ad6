package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ElFirdaous28/event-reservation-system/internal/config"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/user"
)

// AuthService はユーザー登録・ログイン・トークン発行を担う
// 発行したトークンの sub / role クレームをAPI層が信頼して
// アクター情報として予約エンジンへ渡す
type AuthService struct {
	userRepo user.Repository
	cfg      *config.AuthConfig
}

func NewAuthService(userRepo user.Repository, cfg *config.AuthConfig) *AuthService {
	return &AuthService{userRepo: userRepo, cfg: cfg}
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

// Register は新しい参加者ユーザーを登録する
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	u := user.NewUser(input.FullName, input.Email, string(hash))
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

type LoginOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *user.User
}

// Login は認証に成功した場合アクセストークンを発行する
// 資格情報の不一致はユーザー不在と区別しない
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginOutput, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	token, exp, err := s.issueAccessToken(u)
	if err != nil {
		return nil, err
	}
	return &LoginOutput{AccessToken: token, ExpiresAt: exp, User: u}, nil
}

// GetProfile はIDからユーザー情報を取得する
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*user.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// issueAccessToken はHS256で署名したJWTを発行する
// クレーム: sub（ユーザーID）、role、exp、iat
func (s *AuthService) issueAccessToken(u *user.User) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(s.cfg.AccessTokenTTL)
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": string(u.Role),
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("トークン署名に失敗: %w", err)
	}
	return signed, exp, nil
}
