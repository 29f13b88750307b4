package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/storage"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrInvalidImage        = errors.New("invalid image")
)

// Faces are stored no larger than this on either edge.
const faceMaxEdge = 512

// Accepted upload types, matched against the sniffed content.
var allowedUploadTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/zip",
}

// MediaService stores uploads and face captures through a storage backend.
type MediaService struct {
	cfg     *config.Config
	backend storage.Backend
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config, backend storage.Backend) *MediaService {
	return &MediaService{cfg: cfg, backend: backend}
}

// SaveUpload validates and stores a multipart upload under folder.
// The type is sniffed from the content, not taken from the client header.
func (s *MediaService) SaveUpload(ctx context.Context, header *multipart.FileHeader, folder string) (*model.UploadedFile, error) {
	if header.Size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrFileTooLarge, s.cfg.MaxUploadBytes)
	}

	return s.SaveBytes(ctx, header.Filename, data, folder)
}

// SaveBytes stores an in-memory file under folder.
func (s *MediaService) SaveBytes(ctx context.Context, filename string, data []byte, folder string) (*model.UploadedFile, error) {
	mt := mimetype.Detect(data)
	if !uploadAllowed(mt) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, mt.String())
	}

	ext := mt.Extension()
	if strings.HasPrefix(mt.String(), "text/") {
		// Source files sniff as text; keep the author's extension.
		ext = strings.ToLower(path.Ext(filename))
	}

	key := path.Join(folder, uuid.New().String()+ext)
	url, err := s.backend.Put(ctx, key, bytes.NewReader(data), mt.String())
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	return &model.UploadedFile{
		FileName: path.Base(filename),
		FileURL:  url,
		FileSize: int64(len(data)),
		MimeType: mt.String(),
	}, nil
}

// SaveFaceImage stores a captured face. value is either a base64 data URL
// from the camera or the URL of an earlier upload, which is kept as is.
func (s *MediaService) SaveFaceImage(ctx context.Context, userID int, value string) (string, error) {
	if !strings.HasPrefix(value, "data:") {
		if strings.HasPrefix(value, "/uploads/") || strings.HasPrefix(value, "https://") {
			return value, nil
		}
		return "", fmt.Errorf("%w: expected a data URL", ErrInvalidImage)
	}

	raw, err := decodeDataURL(value)
	if err != nil {
		return "", err
	}
	if int64(len(raw)) > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: max %d bytes", ErrFileTooLarge, s.cfg.MaxUploadBytes)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = imaging.Fit(img, faceMaxEdge, faceMaxEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("encode face image: %w", err)
	}

	key := fmt.Sprintf("faces/%d-%s.jpg", userID, uuid.New().String())
	return s.backend.Put(ctx, key, &buf, "image/jpeg")
}

func decodeDataURL(s string) ([]byte, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
		return nil, fmt.Errorf("%w: malformed data URL", ErrInvalidImage)
	}
	raw, err := base64.StdEncoding.DecodeString(s[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return raw, nil
}

func uploadAllowed(mt *mimetype.MIME) bool {
	if strings.HasPrefix(mt.String(), "text/") {
		return true
	}
	for _, t := range allowedUploadTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}
