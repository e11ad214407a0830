package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmailTaken         = errors.New("email already registered")
	ErrStudentIDTaken     = errors.New("student id already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileExists      = errors.New("profile already exists")
	ErrPageNotFound       = errors.New("page not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrTargetNotFound     = errors.New("comment target not found")
	ErrMediaNotFound      = errors.New("media not found")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
	ErrFileTooLarge       = errors.New("file too large")
	ErrImageRejected      = errors.New("image rejected: violates community guidelines")
)
