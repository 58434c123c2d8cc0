package models

import "time"

// Роли пользователя, попадают в claim "role" токена
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User представляет покупателя или администратора магазина
type User struct {
	ID        int64
	FullName  string
	Phone     string // номер WhatsApp, используется как логин
	PassHash  []byte
	Role      string
	IsVIP     bool // VIP-покупателям доставка бесплатна
	CreatedAt time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
