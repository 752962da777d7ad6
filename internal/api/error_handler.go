package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ElFirdaous28/event-reservation-system/internal/domain/event"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/reservation"
	"github.com/ElFirdaous28/event-reservation-system/internal/domain/user"
	"github.com/ElFirdaous28/event-reservation-system/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
// Code はフロントエンドが分岐に使う安定した識別子
// （メッセージ文字列のパースに依存させない）
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// エラー種別の安定コード
const (
	CodeNotFound         = "not_found"
	CodeInvalidState     = "invalid_state"
	CodeConflict         = "conflict"
	CodeCapacityExceeded = "capacity_exceeded"
	CodeForbidden        = "forbidden"
	CodeUnauthorized     = "unauthorized"
	CodeInvalidRequest   = "invalid_request"
	CodeInternal         = "internal_error"
)

// mapDomainError はドメインエラーをHTTPステータスと安定コードに対応付ける
func mapDomainError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, event.ErrEventNotFound),
		errors.Is(err, reservation.ErrReservationNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, CodeNotFound, true
	case errors.Is(err, event.ErrEventNotPublished):
		return http.StatusUnprocessableEntity, CodeInvalidState, true
	case errors.Is(err, reservation.ErrEventFull),
		errors.Is(err, event.ErrInvalidAvailableSeats):
		return http.StatusConflict, CodeCapacityExceeded, true
	case errors.Is(err, reservation.ErrAlreadyReserved),
		errors.Is(err, user.ErrEmailAlreadyExists):
		return http.StatusConflict, CodeConflict, true
	case errors.Is(err, reservation.ErrForbidden),
		errors.Is(err, event.ErrNotEventOwner):
		return http.StatusForbidden, CodeForbidden, true
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeUnauthorized, true
	case errors.Is(err, reservation.ErrInvalidStatus),
		errors.Is(err, event.ErrInvalidEventStatus):
		return http.StatusBadRequest, CodeInvalidRequest, true
	}
	return 0, "", false
}

// DomainError はドメインエラーを対応するHTTPエラーへ変換する
// 対応付けのないエラーはインフラ障害として500で伝播する
func DomainError(err error) error {
	if status, code, ok := mapDomainError(err); ok {
		return echo.NewHTTPError(status, ErrorResponse{Error: err.Error(), Code: code})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{Error: "内部サーバーエラー", Code: CodeInternal}).SetInternal(err)
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code = http.StatusInternalServerError
		body = ErrorResponse{Error: "内部サーバーエラー", Code: CodeInternal}
	)

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch m := he.Message.(type) {
		case ErrorResponse:
			body = m
		case string:
			body = ErrorResponse{Error: m, Code: defaultCodeFor(code)}
		default:
			body = ErrorResponse{Error: http.StatusText(code), Code: defaultCodeFor(code)}
		}
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	// JSONレスポンスを返す
	if err := c.JSON(code, body); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

func defaultCodeFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusConflict:
		return CodeConflict
	case http.StatusBadRequest:
		return CodeInvalidRequest
	default:
		return CodeInternal
	}
}
