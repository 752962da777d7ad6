package reservation

// CanTransition は状態遷移の認可を判定する純粋関数
// 管理者は任意の状態へ遷移できる。参加者は自分の予約かつ
// キャンセルへの遷移のみ許可される（他の状態は自分の予約でも拒否）
// 永続化された状態を持たず、呼び出しごとに評価される
func CanTransition(isAdmin, ownsReservation bool, to Status) bool {
	if isAdmin {
		return true
	}
	return ownsReservation && to == StatusCanceled
}

// CanRemove は予約削除の認可を判定する
// 管理者または予約の所有者のみ削除できる
func CanRemove(isAdmin, ownsReservation bool) bool {
	return isAdmin || ownsReservation
}
