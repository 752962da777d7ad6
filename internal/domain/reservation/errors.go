package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound = errors.New("予約が見つかりません")
	ErrAlreadyReserved     = errors.New("このイベントに対する有効な予約が既に存在します")
	ErrEventFull           = errors.New("イベントは満席です")
	ErrForbidden           = errors.New("この予約を操作する権限がありません")
	ErrEventIDRequired     = errors.New("イベントIDは必須です")
	ErrUserIDRequired      = errors.New("ユーザーIDは必須です")
	ErrInvalidStatus       = errors.New("不正な予約状態です")
)
