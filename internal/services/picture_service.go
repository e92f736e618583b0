package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/imaging"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/metrics"
	"github.com/google/uuid"
)

// PictureUpload is a raw picture as received from the client.
type PictureUpload struct {
	Body     io.Reader
	Size     int64
	Filename string
}

// PictureService normalises uploads into square JPEGs and stores them.
type PictureService struct {
	store    PictureStore
	maxBytes int64
	size     int
}

func NewPictureService(store PictureStore, maxBytes int64, size int) *PictureService {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if size <= 0 {
		size = imaging.DefaultSize
	}
	return &PictureService{store: store, maxBytes: maxBytes, size: size}
}

// Store transforms and uploads the picture and returns its reference.
func (s *PictureService) Store(ctx context.Context, accountID uuid.UUID, upload *PictureUpload) (string, error) {
	if s.store == nil {
		return "", upstream("picture store", errors.New("not configured"))
	}
	if upload.Size > s.maxBytes {
		return "", invalidf("picture must be at most %d bytes", s.maxBytes)
	}

	thumb, err := imaging.Thumbnail(upload.Body, s.maxBytes, s.size)
	if err != nil {
		metrics.PictureUploads.WithLabelValues(metrics.OutcomeFailure).Inc()
		switch {
		case errors.Is(err, imaging.ErrTooLarge):
			return "", invalidf("picture must be at most %d bytes", s.maxBytes)
		case errors.Is(err, imaging.ErrUnsupported), errors.Is(err, imaging.ErrEmpty):
			return "", invalid(err)
		}
		return "", err
	}

	key := fmt.Sprintf("profile-pictures/%s/%s.jpg", accountID, uuid.New())
	ref, err := s.store.Upload(ctx, key, bytes.NewReader(thumb), int64(len(thumb)), imaging.ContentType)
	metrics.PictureUploads.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		return "", upstream("picture upload", err)
	}
	return ref, nil
}

// Discard deletes a stored picture. Failures are logged and counted but never returned.
func (s *PictureService) Discard(ctx context.Context, ref string) {
	if s.store == nil || ref == "" {
		return
	}
	if err := s.store.Delete(ctx, ref); err != nil {
		metrics.PictureCleanupFailures.Inc()
		slog.Warn("failed to delete profile picture", "ref", ref, "error", err)
	}
}
