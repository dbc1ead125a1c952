package api

import (
	"time"

	apperrors "github.com/axellelanca/linkforge/internal/errors"
)

// Response is the envelope of every successful API response.
type Response[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      T      `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorResponse is the envelope of every failed API response.
type ErrorResponse struct {
	Success   bool           `json:"success"`
	Kind      apperrors.Kind `json:"kind"`
	Message   string         `json:"message"`
	RequestID string         `json:"requestId,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func OK[T any](data T, message string) *Response[T] {
	return &Response[T]{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

func errorFrom(err error, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Kind:      apperrors.KindOf(err),
		Message:   apperrors.PublicMessage(err),
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// LinkView is the public shape of a short link.
type LinkView struct {
	Code        string    `json:"code"`
	LongURL     string    `json:"longUrl"`
	ShortURL    string    `json:"shortUrl"`
	Clicks      int64     `json:"clicks"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
