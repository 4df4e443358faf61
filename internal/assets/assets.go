// Package assets abstracts the external image store. The catalog only
// needs three things back from an upload: a stable public identifier, a
// serving URL, and the two dominant colors. Everything else (storage,
// resizing, color extraction) is the store's problem.
package assets

import (
	"context"

	"github.com/sakif/media-catalog/internal/model"
)

// Store uploads an image payload and returns its catalog representation.
//
// payload is the client-supplied image data (a base64 data URI or a remote
// URL); folder namespaces uploads by media type ("movies" / "shows").
type Store interface {
	Upload(ctx context.Context, payload, folder string) (*model.Image, error)
}
