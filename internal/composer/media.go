package composer

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/storepost/internal/models"
)

// MediaSelection holds every media source the user touched. Resolve picks
// exactly one of them.
type MediaSelection struct {
	Upload  *Upload
	Library *MediaRef
	Carried *MediaRef
}

func kindOfMIME(mt string) (models.MediaKind, bool) {
	switch {
	case strings.HasPrefix(mt, "video/"):
		return models.MediaKindVideo, true
	case strings.HasPrefix(mt, "image/"):
		return models.MediaKindPhoto, true
	}
	return "", false
}

// declaredKind reads the kind from the Content-Type the client sent.
func declaredKind(u Upload) (models.MediaKind, bool) {
	declared := u.ContentType
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mt
	}
	return kindOfMIME(declared)
}

// sniffedKind reads the kind from the file's magic bytes.
func sniffedKind(u Upload) (models.MediaKind, bool) {
	kind, err := filetype.Match(u.Data)
	if err != nil || kind == types.Unknown {
		return "", false
	}
	return kindOfMIME(kind.MIME.Value)
}

// KindOf derives the media kind from the file contents, falling back to the
// declared MIME type when the bytes are not recognized.
func KindOf(u Upload) models.MediaKind {
	if kind, ok := sniffedKind(u); ok {
		return kind
	}
	if kind, ok := declaredKind(u); ok {
		return kind
	}
	return models.MediaKindPhoto
}

// CheckUpload refuses a file whose declared type names a different kind
// than its contents.
func CheckUpload(u Upload) error {
	declared, ok := declaredKind(u)
	if !ok {
		return nil
	}
	if sniffed, ok := sniffedKind(u); ok && sniffed != declared {
		return newValidationError("media", fmt.Sprintf("file is declared as %s but contains a %s",
			strings.ToLower(string(declared)), strings.ToLower(string(sniffed))))
	}
	return nil
}

// Kind reports the kind the selection resolves to without storing anything.
func (m MediaSelection) Kind() (models.MediaKind, bool) {
	switch {
	case m.Upload != nil:
		return KindOf(*m.Upload), true
	case m.Library != nil && m.Library.URL != "":
		return m.Library.Kind, true
	case m.Carried != nil && m.Carried.URL != "":
		return m.Carried.Kind, true
	default:
		return "", false
	}
}

// Source names the winning source: upload, library, carried or "".
func (m MediaSelection) Source() string {
	switch {
	case m.Upload != nil:
		return "upload"
	case m.Library != nil && m.Library.URL != "":
		return "library"
	case m.Carried != nil && m.Carried.URL != "":
		return "carried"
	default:
		return ""
	}
}

// Resolve returns the single media reference for a post. An upload is stored
// first and the storage URL wins; otherwise a library or carried URL is used
// as is. A failed upload yields an *UploadError.
func (m MediaSelection) Resolve(ctx context.Context, store MediaStore, userID int64, storeID string) (*MediaRef, error) {
	switch m.Source() {
	case "upload":
		url, err := store.Upload(ctx, userID, storeID, *m.Upload)
		if err != nil {
			return nil, &UploadError{Err: err}
		}
		if url == "" {
			return nil, &UploadError{Err: errors.New("storage returned no URL")}
		}
		return &MediaRef{URL: url, Kind: KindOf(*m.Upload)}, nil
	case "library":
		ref := *m.Library
		return &ref, nil
	case "carried":
		ref := *m.Carried
		return &ref, nil
	default:
		return nil, nil
	}
}
