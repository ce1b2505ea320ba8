// Package editor implements non-destructive image editing over one media
// item: crop and resize replace the working surface, while rotation and filter
// adjustments are recomputed from it on every render. Saving uploads the
// edited raster as a new derived item so the original is never overwritten.
package editor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/magpress/media-center/pkg/mediaclient"

	"github.com/disintegration/imaging"
)

// minCropSize is the smallest selection treated as a real crop. Anything
// smaller is considered an accidental drag and ignored.
const minCropSize = 10

// saveQuality is the JPEG quality used when uploading an edited image.
const saveQuality = 90

// Facade is the slice of the API client the editor needs.
type Facade interface {
	Upload(ctx context.Context, req mediaclient.UploadRequest) (*mediaclient.MediaItem, error)
	Update(ctx context.Context, id string, req mediaclient.UpdateRequest) (*mediaclient.MediaItem, error)
}

// Adjustments are the filter settings applied on render. The zero value is not
// the identity; use DefaultAdjustments.
type Adjustments struct {
	Brightness int // 0-200, 100 = identity
	Contrast   int // 0-200, 100 = identity
	Saturation int // 0-200, 100 = identity
	Blur       int // 0-10 px
	Grayscale  int // 0-100 %
	Sepia      int // 0-100 %
	HueRotate  int // 0-360 degrees
}

// DefaultAdjustments returns identity settings.
func DefaultAdjustments() Adjustments {
	return Adjustments{Brightness: 100, Contrast: 100, Saturation: 100}
}

func (a Adjustments) isIdentity() bool {
	return a == DefaultAdjustments()
}

// clamp normalizes out-of-range settings.
func (a Adjustments) clamp() Adjustments {
	a.Brightness = clampInt(a.Brightness, 0, 200)
	a.Contrast = clampInt(a.Contrast, 0, 200)
	a.Saturation = clampInt(a.Saturation, 0, 200)
	a.Blur = clampInt(a.Blur, 0, 10)
	a.Grayscale = clampInt(a.Grayscale, 0, 100)
	a.Sepia = clampInt(a.Sepia, 0, 100)
	a.HueRotate = ((a.HueRotate % 360) + 360) % 360
	return a
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Editor holds the working state for one image.
type Editor struct {
	facade Facade
	item   *mediaclient.MediaItem

	surface     *image.NRGBA
	rotation    int // clockwise degrees, always 0/90/180/270
	adjustments Adjustments
	dirty       bool

	// Metadata edited alongside the pixels; saved with either path.
	DisplayName string
	AltText     string
	Caption     string
}

// New opens an editor over an item's original image bytes.
func New(facade Facade, item *mediaclient.MediaItem, original []byte) (*Editor, error) {
	if item != nil && !item.IsImage() {
		return nil, fmt.Errorf("editor: %s is not an image", item.ID)
	}
	decoded, err := imaging.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("editor: could not decode image: %w", err)
	}

	editor := &Editor{
		facade:      facade,
		item:        item,
		surface:     imaging.Clone(decoded),
		adjustments: DefaultAdjustments(),
	}
	if item != nil {
		editor.DisplayName = item.DisplayName
		editor.AltText = item.AltText
		editor.Caption = item.Caption
	}
	return editor, nil
}

// Bounds returns the working surface dimensions before rotation.
func (e *Editor) Bounds() (width, height int) {
	b := e.surface.Bounds()
	return b.Dx(), b.Dy()
}

// Rotation returns the current clockwise rotation in degrees.
func (e *Editor) Rotation() int { return e.rotation }

// Dirty reports whether the pixels differ from the original.
func (e *Editor) Dirty() bool { return e.dirty }

// Crop replaces the working surface with the selection. Selections smaller
// than 10x10 are treated as accidental and ignored.
func (e *Editor) Crop(rect image.Rectangle) {
	rect = rect.Intersect(e.surface.Bounds())
	if rect.Dx() < minCropSize || rect.Dy() < minCropSize {
		return
	}
	e.surface = imaging.Crop(e.surface, rect)
	e.dirty = true
}

// Resize scales the working surface. With keepAspect, height is derived from
// width (or width from height when width is zero). Zero or negative sizes are
// ignored.
func (e *Editor) Resize(width, height int, keepAspect bool) {
	if width <= 0 && height <= 0 {
		return
	}
	if keepAspect {
		if width > 0 {
			height = 0
		}
		// imaging derives the missing dimension from the aspect ratio.
	}
	e.surface = imaging.Resize(e.surface, width, height, imaging.Lanczos)
	e.dirty = true
}

// RotateCW adds a 90-degree clockwise rotation.
func (e *Editor) RotateCW() {
	e.rotation = (e.rotation + 90) % 360
	e.dirty = true
}

// RotateCCW adds a 90-degree counter-clockwise rotation.
func (e *Editor) RotateCCW() {
	e.rotation = (e.rotation + 270) % 360
	e.dirty = true
}

// Adjust replaces the filter settings, clamping out-of-range values.
func (e *Editor) Adjust(a Adjustments) {
	clamped := a.clamp()
	if clamped == e.adjustments {
		return
	}
	e.adjustments = clamped
	e.dirty = true
}

// Adjustments returns the current (clamped) filter settings.
func (e *Editor) Adjustments() Adjustments { return e.adjustments }

// Reset drops rotation and filter changes. Crops and resizes are destructive
// and cannot be reset.
func (e *Editor) Reset() {
	e.rotation = 0
	e.adjustments = DefaultAdjustments()
}

// Render produces the current raster: surface, then rotation, then filters.
func (e *Editor) Render() *image.NRGBA {
	img := e.surface

	switch e.rotation {
	case 90:
		img = imaging.Rotate270(img) // imaging rotates counter-clockwise
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	default:
		img = imaging.Clone(img)
	}

	a := e.adjustments
	if a.Brightness != 100 {
		img = imaging.AdjustBrightness(img, float64(a.Brightness-100)/2)
	}
	if a.Contrast != 100 {
		img = imaging.AdjustContrast(img, float64(a.Contrast-100)/2)
	}
	if a.Saturation != 100 {
		img = imaging.AdjustSaturation(img, float64(a.Saturation-100))
	}
	if a.Blur > 0 {
		img = imaging.Blur(img, float64(a.Blur))
	}
	if a.Grayscale > 0 {
		img = applyGrayscale(img, a.Grayscale)
	}
	if a.Sepia > 0 {
		img = applySepia(img, a.Sepia)
	}
	if a.HueRotate > 0 {
		img = applyHueRotate(img, a.HueRotate)
	}
	return img
}

// Save persists the edit. A clean surface with identity settings results in a
// metadata-only update; otherwise the render is encoded as JPEG and uploaded
// as a new item derived from the original.
func (e *Editor) Save(ctx context.Context) (*mediaclient.MediaItem, error) {
	if e.item == nil {
		return nil, fmt.Errorf("editor: no media item attached")
	}

	if !e.dirty {
		return e.facade.Update(ctx, e.item.ID, mediaclient.UpdateRequest{
			DisplayName: &e.DisplayName,
			AltText:     &e.AltText,
			Caption:     &e.Caption,
		})
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, e.Render(), imaging.JPEG, imaging.JPEGQuality(saveQuality)); err != nil {
		return nil, fmt.Errorf("editor: could not encode image: %w", err)
	}

	filename := derivedFilename(e.item.Filename)
	return e.facade.Upload(ctx, mediaclient.UploadRequest{
		Filename:    filename,
		Reader:      &buf,
		Size:        int64(buf.Len()),
		FolderID:    e.item.FolderID,
		DisplayName: e.DisplayName,
		AltText:     e.AltText,
		Caption:     e.Caption,
		OriginalID:  e.item.ID,
		Tags:        e.item.TagNames(),
	})
}

// derivedFilename marks the copy as edited and normalizes the extension to
// match the JPEG encoding.
func derivedFilename(original string) string {
	base := original
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base + "-edited.jpg"
}
