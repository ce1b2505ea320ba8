package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
)

// TransformationOptions defines the available image transformation options
type TransformationOptions struct {
	Width   int    `json:"width,omitempty"`   // Width in pixels
	Height  int    `json:"height,omitempty"`  // Height in pixels
	Fit     string `json:"fit,omitempty"`     // Fit mode: "contain", "cover", "fill"
	Crop    string `json:"crop,omitempty"`    // Crop position: "center", "top", "bottom", "left", "right"
	Quality int    `json:"quality,omitempty"` // JPEG quality (1-100)
	Format  string `json:"format,omitempty"`  // Output format: "jpeg", "png"
	Preset  string `json:"preset,omitempty"`  // Predefined transformation preset
}

// IsEmpty checks if any transformation options are set
func (t *TransformationOptions) IsEmpty() bool {
	return t.Width == 0 && t.Height == 0 && t.Fit == "" && t.Crop == "" &&
		t.Quality == 0 && t.Format == "" && t.Preset == ""
}

// Validate checks if the transformation options are valid
func (t *TransformationOptions) Validate() error {
	if t.Width < 0 || t.Height < 0 {
		return fmt.Errorf("width and height must be non-negative")
	}

	maxDimension := 16384
	if t.Width > maxDimension || t.Height > maxDimension {
		return fmt.Errorf("maximum allowed dimension is %d pixels", maxDimension)
	}

	if t.Fit != "" && t.Fit != "contain" && t.Fit != "cover" && t.Fit != "fill" {
		return fmt.Errorf("invalid fit mode: %s", t.Fit)
	}

	if t.Crop != "" && t.Crop != "center" && t.Crop != "top" && t.Crop != "bottom" && t.Crop != "left" && t.Crop != "right" {
		return fmt.Errorf("invalid crop position: %s", t.Crop)
	}

	if t.Quality < 0 || t.Quality > 100 {
		return fmt.Errorf("quality must be between 0 and 100")
	}

	if t.Format != "" && t.Format != "jpeg" && t.Format != "jpg" && t.Format != "png" {
		return fmt.Errorf("unsupported format: %s", t.Format)
	}

	return nil
}

// ContentType returns the MIME type the transformed output will carry.
func (t *TransformationOptions) ContentType(fallback string) string {
	switch t.Format {
	case "png":
		return "image/png"
	case "jpeg", "jpg":
		return "image/jpeg"
	default:
		return fallback
	}
}

// TransformImage applies the specified transformations to an image
func TransformImage(input io.Reader, options TransformationOptions) ([]byte, error) {
	if options.IsEmpty() {
		return io.ReadAll(input)
	}

	src, format, err := image.Decode(input)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}

	bounds := src.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	transformed := imaging.Clone(src)

	if options.Width > 0 || options.Height > 0 {
		targetWidth := options.Width
		targetHeight := options.Height

		// If only one dimension is specified, keep the aspect ratio
		if targetWidth == 0 {
			targetWidth = int(float64(origWidth) * float64(targetHeight) / float64(origHeight))
		} else if targetHeight == 0 {
			targetHeight = int(float64(origHeight) * float64(targetWidth) / float64(origWidth))
		}

		switch options.Fit {
		case "cover":
			transformed = imaging.Fill(transformed, targetWidth, targetHeight, imaging.Center, imaging.Lanczos)
		case "fill":
			transformed = imaging.Resize(transformed, targetWidth, targetHeight, imaging.Lanczos)
		default: // "contain"
			transformed = imaging.Fit(transformed, targetWidth, targetHeight, imaging.Lanczos)
		}
	}

	if options.Crop != "" {
		currentBounds := transformed.Bounds()
		cropWidth := options.Width
		cropHeight := options.Height

		if cropWidth == 0 || cropWidth > currentBounds.Dx() {
			cropWidth = currentBounds.Dx()
		}
		if cropHeight == 0 || cropHeight > currentBounds.Dy() {
			cropHeight = currentBounds.Dy()
		}

		var anchor imaging.Anchor
		switch options.Crop {
		case "top":
			anchor = imaging.Top
		case "bottom":
			anchor = imaging.Bottom
		case "left":
			anchor = imaging.Left
		case "right":
			anchor = imaging.Right
		default:
			anchor = imaging.Center
		}

		transformed = imaging.CropAnchor(transformed, cropWidth, cropHeight, anchor)
	}

	var buf bytes.Buffer
	outputFormat := options.Format
	if outputFormat == "" {
		outputFormat = format
	}

	switch outputFormat {
	case "png":
		err = png.Encode(&buf, transformed)
	default:
		quality := options.Quality
		if quality == 0 {
			quality = 85
		}
		err = jpeg.Encode(&buf, transformed, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode transformed image: %v", err)
	}

	return buf.Bytes(), nil
}

// ApplyPreset applies a predefined transformation preset
func ApplyPreset(options *TransformationOptions, preset string) error {
	switch preset {
	case "thumbnail":
		options.Width = 300
		options.Height = 300
		options.Fit = "cover"
		options.Quality = 80
	case "social":
		options.Width = 1200
		options.Height = 630
		options.Fit = "contain"
		options.Quality = 85
	case "avatar":
		options.Width = 300
		options.Height = 300
		options.Fit = "cover"
		options.Quality = 85
	case "banner":
		options.Width = 1920
		options.Height = 400
		options.Fit = "cover"
		options.Quality = 90
	default:
		return fmt.Errorf("unknown preset: %s", preset)
	}
	return nil
}
