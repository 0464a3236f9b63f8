package domain

import "time"

type MediaType string

const (
	MediaTypeBook   MediaType = "book"
	MediaTypeMovie  MediaType = "movie"
	MediaTypeTVShow MediaType = "tv-show"
)

var MediaTypes = []MediaType{MediaTypeBook, MediaTypeMovie, MediaTypeTVShow}

func ParseMediaType(raw string) (MediaType, bool) {
	for _, mt := range MediaTypes {
		if string(mt) == raw {
			return mt, true
		}
	}
	return "", false
}

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusDeleted   RequestStatus = "deleted"
)

type MediaRequest struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"index;not null" json:"user_id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	MediaType     MediaType  `gorm:"size:32;not null" json:"media_type"`
	DateCreated   time.Time  `gorm:"autoCreateTime;index" json:"date_created"`
	DateCompleted *time.Time `json:"date_completed,omitempty"`
	DateDeleted   *time.Time `gorm:"index" json:"date_deleted,omitempty"`
}

func (MediaRequest) TableName() string { return "requests" }

// Status derives the lifecycle state; deletion wins over completion.
func (r *MediaRequest) Status() RequestStatus {
	switch {
	case r.DateDeleted != nil:
		return RequestStatusDeleted
	case r.DateCompleted != nil:
		return RequestStatusCompleted
	default:
		return RequestStatusPending
	}
}
