package models

import "errors"

var (
	ErrInvalidKind    = errors.New("invalid record kind")
	ErrEmptyTitle     = errors.New("empty title")
	ErrEmptyEventDate = errors.New("empty event date")
	ErrEmptyFileName  = errors.New("empty file name")
	ErrEmptyMimeType  = errors.New("empty mime type")
	ErrInvalidStatus  = errors.New("invalid record status")
	ErrNoPayloadRef   = errors.New("record has no payload reference")
)
