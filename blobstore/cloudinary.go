package blobstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// callTimeout bounds every blob store call so a slow upstream cannot hold a
// request open indefinitely
const callTimeout = 30 * time.Second

type cloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinary builds a Store backed by Cloudinary, configured from the
// CLOUDINARY_URL environment variable
func NewCloudinary() (Store, error) {
	cld, err := cloudinary.New()
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &cloudinaryStore{cld: cld}, nil
}

func (s *cloudinaryStore) Upload(ctx context.Context, r io.Reader, folder string) (*UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         folder,
		Transformation: "c_limit,w_1200,h_1200,q_auto",
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	return &UploadResult{URL: resp.SecureURL, BlobID: resp.PublicID}, nil
}

func (s *cloudinaryStore) Delete(ctx context.Context, blobID string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: blobID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Result)
	}
	return nil
}
