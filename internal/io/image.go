package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

// ImageService prepares downloaded cover images for ID3 embedding.
//
// Suno serves cover art in varying formats and sizes; embedding a
// multi-megabyte PNG into every MP3 bloats the library, so the service
// normalizes artwork to bounded JPEG:
//
//	svc := ioutils.NewImageService()
//	cover, err := svc.PrepareCover(ctx, rawImage, 1000)
//	// cover is JPEG-encoded, at most 1000px on the longer side
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// PrepareCover decodes an image and re-encodes it as JPEG, downscaling
// it first when either dimension exceeds maxSize pixels.
//
// The aspect ratio is preserved; images already inside the bound are
// re-encoded without scaling. maxSize <= 0 disables scaling entirely.
// The Catmull-Rom kernel is used for high-quality downscaling.
//
// Parameters:
//   - ctx: Context for cancellation (currently unused)
//   - data: Original image data (JPEG, PNG)
//   - maxSize: Maximum width/height in pixels, 0 for no limit
//
// Returns the cover as JPEG bytes with quality 90.
func (s *ImageService) PrepareCover(ctx context.Context, data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxSize > 0 && (width > maxSize || height > maxSize) {
		ratio := float64(width) / float64(height)
		if width >= height {
			width = maxSize
			height = int(float64(maxSize) / ratio)
		} else {
			height = maxSize
			width = int(float64(maxSize) * ratio)
		}
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
