package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound         = errors.New("イベントが見つかりません")
	ErrEventNotPublished     = errors.New("公開されていないイベントは予約できません")
	ErrEventTitleRequired    = errors.New("イベントタイトルは必須です")
	ErrEventLocationRequired = errors.New("開催場所は必須です")
	ErrInvalidCapacity       = errors.New("定員は1以上である必要があります")
	ErrInvalidAvailableSeats = errors.New("空席数は0以上かつ定員以下である必要があります")
	ErrInvalidEventStatus    = errors.New("不正なイベント状態です")
	ErrNotEventOwner         = errors.New("自分が作成したイベントのみ操作できます")
)
