package pulso

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/nicolasparada/go-errs"

	"github.com/pulsoapp/pulso/storage"
)

const ErrUnsupportedImageFormat = errs.InvalidArgumentError("unsupported image format")

const (
	maxImageWidth  = 1280
	maxImageHeight = 1280
)

// normalizeImage re-encodes an uploaded image as JPEG,
// bounded to maxImageWidth x maxImageHeight keeping the aspect ratio.
func normalizeImage(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if errors.Is(err, image.ErrFormat) {
		return nil, ErrUnsupportedImageFormat
	}

	if err != nil {
		return nil, fmt.Errorf("normalize image: decode: %w", err)
	}

	resized := imaging.Fit(img, maxImageWidth, maxImageHeight, imaging.Lanczos)

	var out bytes.Buffer
	err = imaging.Encode(&out, resized, imaging.JPEG)
	if err != nil {
		return nil, fmt.Errorf("normalize image: jpeg encode: %w", err)
	}

	return out.Bytes(), nil
}

func storeWithJPEG() storage.StoreOpt {
	return storage.StoreWithContentType("image/jpeg")
}

func storeWithImmutableCache() storage.StoreOpt {
	return storage.StoreWithCacheControl("public, max-age=31536000, immutable")
}
