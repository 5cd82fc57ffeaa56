package resource

import (
	"errors"
	"time"
)

type Resource struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Branch      string    `json:"branch"`
	Semester    int       `json:"semester"`
	Subject     string    `json:"subject"`
	Year        int       `json:"year"`
	FileRef     string    `json:"fileUrl"`
	UploadedBy  string    `json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// View is a Resource joined with its uploader's display name,
// computed at query time and never persisted.
type View struct {
	Resource
	UploaderName string `json:"uploaderName"`
}

// ListFilter fields are pointers: nil imposes no constraint.
// All present fields are combined with AND.
type ListFilter struct {
	Branch   *string
	Semester *int
	Subject  *string
	Year     *int
	Search   *string
}

var ErrNotFound = errors.New("resource not found")

type UploadRequest struct {
	Title       string `form:"title" binding:"required,min=1,max=200"`
	Description string `form:"description" binding:"omitempty,max=2000"`
	Branch      string `form:"branch" binding:"required,min=1,max=80"`
	Semester    int    `form:"semester" binding:"required,min=1,max=12"`
	Subject     string `form:"subject" binding:"required,min=1,max=120"`
	Year        int    `form:"year" binding:"required,min=1900,max=2200"`
}
