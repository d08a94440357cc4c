package models

import "time"

type FamilyGroup struct {
	FamilyGroupID int64     `json:"family_group_id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
}

type User struct {
	UserID        int64     `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	FamilyGroupID int64     `json:"family_group_id"`
	Role          string    `json:"role"` // admin | member
	Timezone      string    `json:"timezone"`
	CreatedAt     time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// UserPlatformLink connects a user to an outbound chat platform address.
// A user may have several links; the primary one is tried first for
// notifications.
type UserPlatformLink struct {
	LinkID         int64     `json:"link_id"`
	UserID         int64     `json:"user_id"`
	Platform       string    `json:"platform"` // telegram | slack
	PlatformUserID string    `json:"platform_user_id"`
	IsPrimary      bool      `json:"is_primary"`
	CreatedAt      time.Time `json:"created_at"`
}

type FamilyInvite struct {
	InviteID      int64     `json:"invite_id"`
	FamilyGroupID int64     `json:"family_group_id"`
	Code          string    `json:"code"`
	CreatedBy     int64     `json:"created_by"`
	ExpiresAt     time.Time `json:"expires_at"`
	MaxUses       *int      `json:"max_uses"`
	UseCount      int       `json:"use_count"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsUsable reports whether the invite can still be redeemed at the given time.
func (i *FamilyInvite) IsUsable(now time.Time) bool {
	if !i.IsActive || now.After(i.ExpiresAt) {
		return false
	}
	if i.MaxUses != nil && i.UseCount >= *i.MaxUses {
		return false
	}
	return true
}
