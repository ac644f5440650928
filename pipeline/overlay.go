package pipeline

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	overlayOrigin = image.Pt(30, 60)
	overlayColor  = color.RGBA{R: 255, A: 255}
)

func drawOverlay(mat *gocv.Mat, text string) {
	if text == "" {
		return
	}
	gocv.PutText(mat, text, overlayOrigin, gocv.FontHersheySimplex, 1.2, overlayColor, 3)
}

// jpegEncoder defers encoding until a landmark adapter asks for pixels
func jpegEncoder(mat gocv.Mat) func() ([]byte, error) {
	return func() ([]byte, error) {
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
		if err != nil {
			return nil, err
		}
		defer buf.Close()
		return append([]byte(nil), buf.GetBytes()...), nil
	}
}
