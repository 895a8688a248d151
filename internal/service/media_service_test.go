package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/maheshrc27/storepost/internal/composer"
	"github.com/maheshrc27/storepost/internal/models"
)

type memObjects struct {
	mu    sync.Mutex
	err   error
	puts  map[string][]byte
	types map[string]string
}

func (m *memObjects) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.puts == nil {
		m.puts = map[string][]byte{}
		m.types = map[string]string{}
	}
	m.puts[key] = data
	m.types[key] = contentType
	return "https://media.example.com/" + key, nil
}

type fakeAssets struct {
	err    error
	assets []*models.MediaAsset
}

func (f *fakeAssets) Create(_ context.Context, _ *sql.Tx, ma *models.MediaAsset) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.assets = append(f.assets, ma)
	return int64(len(f.assets)), nil
}

func (f *fakeAssets) GetByID(_ context.Context, id int64) (*models.MediaAsset, error) {
	if id < 1 || int(id) > len(f.assets) {
		return nil, nil
	}
	return f.assets[id-1], nil
}

func (f *fakeAssets) ListByStore(_ context.Context, userID int64, storeID string) ([]*models.MediaAsset, error) {
	var out []*models.MediaAsset
	for _, a := range f.assets {
		if a.UserID == userID && a.StoreID == storeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestMediaUploadStoresPhotoAndThumbnail(t *testing.T) {
	t.Parallel()

	objects := &memObjects{}
	assets := &fakeAssets{}
	svc := NewMediaService(objects, assets)

	url, err := svc.Upload(context.Background(), 7, "store-1", composer.Upload{
		FileName: "shelf.png",
		Data:     pngBytes(t, 640, 40),
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if !strings.HasPrefix(url, "https://media.example.com/stores/store-1/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected url %s", url)
	}
	if len(assets.assets) != 1 {
		t.Fatalf("expected one library row, got %d", len(assets.assets))
	}

	asset := assets.assets[0]
	if asset.Kind != models.MediaKindPhoto || asset.FileURL != url || asset.ThumbnailURL == "" {
		t.Fatalf("unexpected asset %+v", asset)
	}

	thumbKey := strings.TrimPrefix(asset.ThumbnailURL, "https://media.example.com/")
	thumb, err := imaging.Decode(bytes.NewReader(objects.puts[thumbKey]))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if thumb.Bounds().Dx() != thumbnailWidth {
		t.Fatalf("expected thumbnail width %d, got %d", thumbnailWidth, thumb.Bounds().Dx())
	}
	if objects.types[thumbKey] != "image/jpeg" {
		t.Fatalf("thumbnail content type %s", objects.types[thumbKey])
	}
}

func TestMediaUploadRejectsUnknownType(t *testing.T) {
	t.Parallel()

	objects := &memObjects{}
	svc := NewMediaService(objects, &fakeAssets{})

	_, err := svc.Upload(context.Background(), 7, "store-1", composer.Upload{
		FileName: "notes.txt",
		Data:     []byte("just some text"),
	})
	if err == nil {
		t.Fatalf("expected error for text upload")
	}
	if len(objects.puts) != 0 {
		t.Fatalf("rejected file was stored")
	}
}

func TestMediaUploadRejectsMislabeledFile(t *testing.T) {
	t.Parallel()

	objects := &memObjects{}
	assets := &fakeAssets{}
	svc := NewMediaService(objects, assets)

	_, err := svc.Upload(context.Background(), 7, "store-1", composer.Upload{
		FileName:    "clip.mp4",
		ContentType: "video/mp4",
		Data:        pngBytes(t, 10, 10),
	})
	var ve *composer.ValidationError
	if !errors.As(err, &ve) || ve.Field != "media" {
		t.Fatalf("expected media validation error, got %v", err)
	}
	if len(objects.puts) != 0 || len(assets.assets) != 0 {
		t.Fatalf("mislabeled file was stored")
	}
}

func TestMediaUploadStorageFailure(t *testing.T) {
	t.Parallel()

	svc := NewMediaService(&memObjects{err: errors.New("bucket unavailable")}, &fakeAssets{})
	if _, err := svc.Upload(context.Background(), 7, "store-1", composer.Upload{Data: pngBytes(t, 10, 10)}); err == nil {
		t.Fatalf("expected storage error")
	}
}

func TestMediaUploadLibraryFailureKeepsURL(t *testing.T) {
	t.Parallel()

	svc := NewMediaService(&memObjects{}, &fakeAssets{err: errors.New("db down")})
	url, err := svc.Upload(context.Background(), 7, "store-1", composer.Upload{Data: pngBytes(t, 10, 10)})
	if err != nil || url == "" {
		t.Fatalf("expected stored url despite library failure, got %q, %v", url, err)
	}
}

func TestMediaList(t *testing.T) {
	t.Parallel()

	assets := &fakeAssets{assets: []*models.MediaAsset{
		{UserID: 7, StoreID: "store-1", FileName: "a.png", FileURL: "https://m/a.png", Kind: models.MediaKindPhoto},
		{UserID: 7, StoreID: "store-2", FileName: "b.mp4", FileURL: "https://m/b.mp4", Kind: models.MediaKindVideo},
	}}
	svc := NewMediaService(&memObjects{}, assets)

	items, err := svc.List(context.Background(), 7, "store-1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 1 || items[0].URL != "https://m/a.png" {
		t.Fatalf("unexpected items %+v", items)
	}

	var verr *composer.ValidationError
	if _, err := svc.List(context.Background(), 7, ""); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for empty store, got %v", err)
	}
}
