package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/ElFirdaous28/event-reservation-system/internal/api"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/user"
)

// コンテキストキー
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// JWTAuth はBearerアクセストークンを検証し、sub / role クレームを
// リクエストコンテキストへ注入するミドルウェア
// 以降のハンドラは Actor(c) でアクター情報を取得できる
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized("認証トークンが必要です")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// 署名アルゴリズムはHS256のみ受け付ける
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return unauthorized("トークンが無効です")
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized("トークンが無効です")
			}
			sub, _ := claims["sub"].(string)
			role, _ := claims["role"].(string)
			if sub == "" {
				return unauthorized("トークンが無効です")
			}

			c.Set(ContextUserID, sub)
			c.Set(ContextRole, role)
			return next(c)
		}
	}
}

// RequireAdmin は管理者のみ通過を許可するミドルウェア
// JWTAuth の後段に置くこと
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if user.Role(role) != user.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, api.ErrorResponse{
					Error: "管理者権限が必要です",
					Code:  api.CodeForbidden,
				})
			}
			return next(c)
		}
	}
}

// Actor はコンテキストからアクター情報を取り出す
func Actor(c echo.Context) (userID string, isAdmin bool) {
	userID, _ = c.Get(ContextUserID).(string)
	role, _ := c.Get(ContextRole).(string)
	return userID, user.Role(role) == user.RoleAdmin
}

func unauthorized(msg string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, api.ErrorResponse{Error: msg, Code: api.CodeUnauthorized})
}
