package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ElFirdaous28/event-reservation-system/internal/api"
	"github.com/ElFirdaous28/event-reservation-system/internal/api/middleware"
	"github.com/ElFirdaous28/event-reservation-system/internal/application"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/user"
)

type AuthHandler struct {
	authService AuthServiceInterface
}

func NewAuthHandler(authService AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required" example:"Jane Doe"`
	Email    string `json:"email" validate:"required,email" example:"jane@example.com"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// Register godoc
// @Summary ユーザー登録
// @Description 新しい参加者ユーザーを登録します
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "登録情報"
// @Success 201 {object} UserResponse
// @Failure 409 {object} api.ErrorResponse "メールアドレスが登録済み"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, api.ErrorResponse{Error: "無効なリクエスト", Code: api.CodeInvalidRequest})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	u, err := h.authService.Register(c.Request().Context(), application.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// Login godoc
// @Summary ログイン
// @Description 認証に成功するとアクセストークンを発行します
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "ログイン情報"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, api.ErrorResponse{Error: "無効なリクエスト", Code: api.CodeInvalidRequest})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	out, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: out.AccessToken,
		ExpiresAt:   out.ExpiresAt,
		User:        toUserResponse(out.User),
	})
}

// Profile godoc
// @Summary ログインユーザーの情報を取得
// @Tags auth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	userID, _ := middleware.Actor(c)
	u, err := h.authService.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return api.DomainError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}
