package model

import "time"

type User struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	TelegramID  *int64    `json:"telegram_id"` // указатель - может быть nil
	PartnerID   *int64    `json:"partner_id"`  // текущий партнёр, nil если нет
	CreatedAt   time.Time `json:"created_at"`
}

// HasPartner checks if the user is currently linked to a partner
func (u *User) HasPartner() bool {
	return u.PartnerID != nil
}

// IsPartnerOf checks if the user is linked to the given user
func (u *User) IsPartnerOf(otherID int64) bool {
	return u.PartnerID != nil && *u.PartnerID == otherID
}
