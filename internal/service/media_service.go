package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/storepost/internal/composer"
	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const thumbnailWidth = 320

var allowedMediaTypes = map[string]models.MediaKind{
	"jpg":  models.MediaKindPhoto,
	"jpeg": models.MediaKindPhoto,
	"png":  models.MediaKindPhoto,
	"webp": models.MediaKindPhoto,
	"mp4":  models.MediaKindVideo,
	"mov":  models.MediaKindVideo,
}

// MediaService stores uploads in object storage and keeps the per-store
// media library.
type MediaService struct {
	objects ObjectStore
	ma      repository.MediaAssetRepository
}

func NewMediaService(objects ObjectStore, ma repository.MediaAssetRepository) *MediaService {
	return &MediaService{objects: objects, ma: ma}
}

func (s *MediaService) Upload(ctx context.Context, userID int64, storeID string, u composer.Upload) (string, error) {
	fileType, err := filetype.Match(u.Data)
	if err != nil || fileType == types.Unknown {
		return "", fmt.Errorf("unsupported file type for %s", u.FileName)
	}
	kind, ok := allowedMediaTypes[fileType.Extension]
	if !ok {
		return "", fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}
	if err := composer.CheckUpload(u); err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := path.Join("stores", storeID, id+"."+fileType.Extension)

	url, err := s.objects.Put(ctx, key, u.Data, fileType.MIME.Value)
	if err != nil {
		return "", err
	}

	asset := &models.MediaAsset{
		UserID:   userID,
		StoreID:  storeID,
		FileName: u.FileName,
		FileType: fileType.MIME.Value,
		Kind:     kind,
		FileSize: int64(len(u.Data)),
		FileURL:  url,
	}
	if kind == models.MediaKindPhoto {
		asset.ThumbnailURL = s.thumbnail(ctx, storeID, id, u.Data)
	}

	// the object is stored; a failed library row only hides it from the picker
	if _, err := s.ma.Create(ctx, nil, asset); err != nil {
		slog.Error("media library insert failed", "url", url, "error", err)
	}

	return url, nil
}

// thumbnail stores a scaled JPEG copy and returns its URL, or "" when the
// image cannot be decoded.
func (s *MediaService) thumbnail(ctx context.Context, storeID, id string, data []byte) string {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		slog.Info("thumbnail skipped", "id", id, "error", err)
		return ""
	}
	if img.Bounds().Dx() > thumbnailWidth {
		img = imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		slog.Info(err.Error())
		return ""
	}

	url, err := s.objects.Put(ctx, path.Join("stores", storeID, "thumbs", id+".jpg"), buf.Bytes(), "image/jpeg")
	if err != nil {
		return ""
	}
	return url
}

func (s *MediaService) List(ctx context.Context, userID int64, storeID string) ([]composer.LibraryItem, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, &composer.ValidationError{Field: "store_id", Message: "store is required"}
	}

	assets, err := s.ma.ListByStore(ctx, userID, storeID)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}

	items := make([]composer.LibraryItem, 0, len(assets))
	for _, a := range assets {
		items = append(items, composer.LibraryItem{
			URL:          a.FileURL,
			Kind:         a.Kind,
			ThumbnailURL: a.ThumbnailURL,
			FileName:     a.FileName,
		})
	}
	return items, nil
}
