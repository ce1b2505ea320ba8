package editor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// applyGrayscale blends the image toward its grayscale version. percent 100 is
// fully gray.
func applyGrayscale(img *image.NRGBA, percent int) *image.NRGBA {
	amount := float64(percent) / 100
	return mapPixels(img, func(r, g, b float64) (float64, float64, float64) {
		gray := 0.299*r + 0.587*g + 0.114*b
		return r + (gray-r)*amount,
			g + (gray-g)*amount,
			b + (gray-b)*amount
	})
}

// applySepia blends the image toward the standard sepia transform.
func applySepia(img *image.NRGBA, percent int) *image.NRGBA {
	amount := float64(percent) / 100
	return mapPixels(img, func(r, g, b float64) (float64, float64, float64) {
		sr := 0.393*r + 0.769*g + 0.189*b
		sg := 0.349*r + 0.686*g + 0.168*b
		sb := 0.272*r + 0.534*g + 0.131*b
		return r + (sr-r)*amount,
			g + (sg-g)*amount,
			b + (sb-b)*amount
	})
}

// applyHueRotate rotates every pixel's hue by the given degrees using the
// luminance-preserving rotation matrix.
func applyHueRotate(img *image.NRGBA, degrees int) *image.NRGBA {
	rad := float64(degrees) * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	// Rows of the hue rotation matrix around the luminance axis.
	m := [3][3]float64{
		{0.213 + cos*0.787 - sin*0.213, 0.715 - cos*0.715 - sin*0.715, 0.072 - cos*0.072 + sin*0.928},
		{0.213 - cos*0.213 + sin*0.143, 0.715 + cos*0.285 + sin*0.140, 0.072 - cos*0.072 - sin*0.283},
		{0.213 - cos*0.213 - sin*0.787, 0.715 - cos*0.715 + sin*0.715, 0.072 + cos*0.928 + sin*0.072},
	}

	return mapPixels(img, func(r, g, b float64) (float64, float64, float64) {
		return m[0][0]*r + m[0][1]*g + m[0][2]*b,
			m[1][0]*r + m[1][1]*g + m[1][2]*b,
			m[2][0]*r + m[2][1]*g + m[2][2]*b
	})
}

// mapPixels applies a per-pixel color transform, leaving alpha untouched.
func mapPixels(img *image.NRGBA, fn func(r, g, b float64) (float64, float64, float64)) *image.NRGBA {
	out := imaging.Clone(img)
	pix := out.Pix
	for i := 0; i < len(pix); i += 4 {
		r, g, b := fn(float64(pix[i]), float64(pix[i+1]), float64(pix[i+2]))
		pix[i] = clampByte(r)
		pix[i+1] = clampByte(g)
		pix[i+2] = clampByte(b)
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
