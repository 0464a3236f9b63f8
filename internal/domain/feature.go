package domain

import "time"

type Feature struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Page        string    `gorm:"size:255;index;not null" json:"page"`
	Selector    string    `gorm:"size:255;not null" json:"selector"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	IsActive    bool      `gorm:"index;not null;default:true" json:"is_active"`
	DateCreated time.Time `gorm:"autoCreateTime" json:"date_created"`
}

type FeatureDismissal struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_dismissal_user_feature;not null" json:"user_id"`
	FeatureID   uint      `gorm:"uniqueIndex:idx_dismissal_user_feature;index;not null" json:"feature_id"`
	DateCreated time.Time `gorm:"autoCreateTime" json:"date_created"`
}
