package storage

import (
	"context"
)

// IconUploader stores user icon images
type IconUploader interface {
	UploadIcon(ctx context.Context, data []byte, userID, filename string) (*UploadResult, error)
	// DeleteIcon removes a previously uploaded icon by URL. URLs this
	// uploader did not produce are ignored.
	DeleteIcon(ctx context.Context, url string) error
}

var _ IconUploader = (*S3Uploader)(nil)
