package domain

import "time"

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Salt         string     `gorm:"size:255;not null" json:"-"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	IsAdmin      bool       `gorm:"not null;default:false" json:"is_admin"`
	DateCreated  time.Time  `gorm:"autoCreateTime" json:"date_created"`
	DateDeleted  *time.Time `gorm:"index" json:"date_deleted,omitempty"`
}

func (u *User) IsDeleted() bool { return u.DateDeleted != nil }

type UserEmail struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Email                 string     `gorm:"size:255;not null" json:"email"`
	AllowNotifications    bool       `gorm:"not null;default:false" json:"allow_notifications"`
	Verified              bool       `gorm:"not null;default:false" json:"verified"`
	VerificationToken     *string    `gorm:"size:64;uniqueIndex" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	DateCreated           time.Time  `gorm:"autoCreateTime" json:"date_created"`
	DateUpdated           time.Time  `gorm:"autoUpdateTime" json:"date_updated"`
}

// CanNotify reports whether request notifications may be mailed to this address.
func (e *UserEmail) CanNotify() bool {
	return e != nil && e.Verified && e.AllowNotifications && e.Email != ""
}
