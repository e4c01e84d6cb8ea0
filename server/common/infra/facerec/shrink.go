package facerec

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// shrink downsizes an image whose longest side exceeds maxDim, keeping the
// aspect ratio and the source format. Anything it cannot decode is returned
// unchanged; the recognizer decides what to do with it.
func shrink(data []byte, maxDim int) []byte {
	if maxDim <= 0 {
		return data
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (cfg.Width <= maxDim && cfg.Height <= maxDim) {
		return data
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data
	}
	resized := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	out := imaging.JPEG
	if format == "png" {
		out = imaging.PNG
	}
	buf := bytes.NewBuffer(nil)
	if err := imaging.Encode(buf, resized, out); err != nil {
		return data
	}
	return buf.Bytes()
}
