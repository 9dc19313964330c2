package domain

import "time"

// MediaUpload is metadata for an object stored in the media bucket. Rows are
// created after a successful bucket write and never mutated.
type MediaUpload struct {
	ID         int64     `json:"id,string" gorm:"primaryKey"`
	UserId     int64     `json:"user_id,string" gorm:"index;not null"`
	FileName   string    `json:"file_name" gorm:"size:255"`
	FileType   string    `json:"file_type" gorm:"size:128"` // MIME type
	URL        string    `json:"url" gorm:"size:1024"`
	ObjectKey  string    `json:"-" gorm:"size:1024"`
	UploadedAt time.Time `json:"uploaded_at"`
	User       *User     `json:"-" gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

func (MediaUpload) TableName() string {
	return "media_uploads"
}
