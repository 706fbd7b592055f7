package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/accordhq/accord/internal/rest"
)

const thumbnailJPEGQuality = 80

// shrinkAttachment downscales an image attachment so its longest dimension
// fits maxSize, re-encoding in the source format. Attachments that are not
// images, already fit, or use a format we cannot re-encode pass through
// untouched.
func shrinkAttachment(f rest.File, maxSize int) (rest.File, error) {
	src, format, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return f, nil
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	longest := width
	if height > longest {
		longest = height
	}
	if longest <= 0 || longest <= maxSize {
		return f, nil
	}

	scale := float64(maxSize) / float64(longest)
	newW := int(float64(width) * scale)
	newH := int(float64(height) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, dst); err != nil {
			return rest.File{}, fmt.Errorf("encode thumbnail %s: %w", f.Name, err)
		}
		f.ContentType = "image/png"
	case "jpeg":
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailJPEGQuality}); err != nil {
			return rest.File{}, fmt.Errorf("encode thumbnail %s: %w", f.Name, err)
		}
		f.ContentType = "image/jpeg"
	default:
		return f, nil
	}
	f.Data = buf.Bytes()
	return f, nil
}
