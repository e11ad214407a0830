package models

import (
	"strings"
	"time"
)

type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeDocument FileType = "document"
)

// ClassifyMIME maps a content type to a media file type by its prefix.
func ClassifyMIME(contentType string) FileType {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return FileTypeImage
	case strings.HasPrefix(ct, "video/"):
		return FileTypeVideo
	default:
		return FileTypeDocument
	}
}

// Media is the record of an uploaded file.
type Media struct {
	ID         string    `json:"id" bson:"_id"`
	UserID     string    `json:"user_id" bson:"user_id"`
	FileURL    string    `json:"file_url" bson:"file_url"`
	FileName   string    `json:"file_name" bson:"file_name"`
	FileType   FileType  `json:"file_type" bson:"file_type"`
	FileSize   int64     `json:"file_size" bson:"file_size"`
	ObjectKey  string    `json:"-" bson:"object_key"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

// UploadPurpose narrows what an upload may contain.
type UploadPurpose string

const (
	PurposeGeneral UploadPurpose = "general"
	PurposeAvatar  UploadPurpose = "avatar"
)

const MaxAvatarSize = 5 * 1024 * 1024

func ParseUploadPurpose(s string) UploadPurpose {
	if UploadPurpose(strings.ToLower(strings.TrimSpace(s))) == PurposeAvatar {
		return PurposeAvatar
	}
	return PurposeGeneral
}
