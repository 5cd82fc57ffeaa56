package resource

import (
	"time"

	"github.com/google/uuid"
)

func NewFromUploadRequest(req UploadRequest, fileRef, uploaderID string) Resource {
	return Resource{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Branch:      req.Branch,
		Semester:    req.Semester,
		Subject:     req.Subject,
		Year:        req.Year,
		FileRef:     fileRef,
		UploadedBy:  uploaderID,
		CreatedAt:   time.Now().UTC(),
	}
}
