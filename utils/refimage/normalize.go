package refimage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	"image/png"

	"github.com/eidosai/eidos/utils/prompt"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP format
)

// DefaultMaxDimension bounds the longest side of a reference image sent to a model
const DefaultMaxDimension = 1024

// scaledSize keeps the aspect ratio while fitting the longest side into maxDim
func scaledSize(width, height, maxDim int) (int, int) {
	if width <= maxDim && height <= maxDim {
		return width, height
	}
	if width > height {
		h := height * maxDim / width
		if h < 1 {
			h = 1
		}
		return maxDim, h
	}
	w := width * maxDim / height
	if w < 1 {
		w = 1
	}
	return w, maxDim
}

// Normalize decodes a reference image and downsizes it so its longest side is at most maxDim.
// PNG and JPEG images already within bounds are returned untouched; everything else is re-encoded as PNG.
func Normalize(img prompt.ImageData, maxDim int) (prompt.ImageData, error) {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}

	decoded, format, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return prompt.ImageData{}, fmt.Errorf("error decoding image: %w", err)
	}

	bounds := decoded.Bounds()
	width, height := scaledSize(bounds.Dx(), bounds.Dy(), maxDim)
	resized := width != bounds.Dx() || height != bounds.Dy()

	if !resized && (format == "png" || format == "jpeg") {
		return prompt.ImageData{MIMEType: "image/" + format, Data: img.Data}, nil
	}

	out := decoded
	if resized {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), decoded, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	encoder := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(&buf, out); err != nil {
		return prompt.ImageData{}, fmt.Errorf("failed to encode image: %w", err)
	}
	return prompt.ImageData{MIMEType: "image/png", Data: buf.Bytes()}, nil
}
