package editor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/magpress/media-center/pkg/mediaclient"

	"github.com/disintegration/imaging"
)

type fakeFacade struct {
	uploads []mediaclient.UploadRequest
	updates []mediaclient.UpdateRequest
}

func (f *fakeFacade) Upload(ctx context.Context, req mediaclient.UploadRequest) (*mediaclient.MediaItem, error) {
	f.uploads = append(f.uploads, req)
	return &mediaclient.MediaItem{ID: "derived", Filename: req.Filename}, nil
}

func (f *fakeFacade) Update(ctx context.Context, id string, req mediaclient.UpdateRequest) (*mediaclient.MediaItem, error) {
	f.updates = append(f.updates, req)
	return &mediaclient.MediaItem{ID: id}, nil
}

// testImage is a 100x60 image with distinct quadrant colors so orientation is
// observable after rotation.
func testImage(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(100, 60, color.NRGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func testItem() *mediaclient.MediaItem {
	return &mediaclient.MediaItem{
		ID:          "m1",
		Type:        "image",
		Filename:    "photo.png",
		DisplayName: "Photo",
		Tags:        []mediaclient.Tag{{Name: "press"}},
	}
}

func newEditor(t *testing.T, facade Facade) *Editor {
	t.Helper()
	e, err := New(facade, testItem(), testImage(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNonImageIsRejected(t *testing.T) {
	_, err := New(&fakeFacade{}, &mediaclient.MediaItem{ID: "v1", Type: "video"}, nil)
	if err == nil {
		t.Fatal("expected an error for non-image media")
	}
}

func TestRotationWrapsMod360(t *testing.T) {
	e := newEditor(t, &fakeFacade{})

	for i := 0; i < 4; i++ {
		e.RotateCW()
	}
	if e.Rotation() != 0 {
		t.Fatalf("four clockwise rotations should return to 0, got %d", e.Rotation())
	}

	e.RotateCCW()
	if e.Rotation() != 270 {
		t.Fatalf("one counter-clockwise rotation from 0 should be 270, got %d", e.Rotation())
	}
}

func TestRotationSwapsRenderDimensions(t *testing.T) {
	e := newEditor(t, &fakeFacade{})

	e.RotateCW()
	rendered := e.Render()
	if w, h := rendered.Bounds().Dx(), rendered.Bounds().Dy(); w != 60 || h != 100 {
		t.Fatalf("rotated render is %dx%d, want 60x100", w, h)
	}

	// The working surface itself is untouched by rotation.
	if w, h := e.Bounds(); w != 100 || h != 60 {
		t.Fatalf("surface changed to %dx%d", w, h)
	}
}

func TestTinyCropIsIgnored(t *testing.T) {
	e := newEditor(t, &fakeFacade{})

	e.Crop(image.Rect(0, 0, 9, 40))
	if e.Dirty() {
		t.Fatal("a selection narrower than 10px must not dirty the document")
	}
	if w, h := e.Bounds(); w != 100 || h != 60 {
		t.Fatalf("surface changed to %dx%d", w, h)
	}

	e.Crop(image.Rect(0, 0, 10, 10))
	if !e.Dirty() {
		t.Fatal("a 10x10 selection is a real crop")
	}
	if w, h := e.Bounds(); w != 10 || h != 10 {
		t.Fatalf("crop produced %dx%d, want 10x10", w, h)
	}
}

func TestResizeKeepsAspect(t *testing.T) {
	e := newEditor(t, &fakeFacade{})

	e.Resize(50, 999, true)
	if w, h := e.Bounds(); w != 50 || h != 30 {
		t.Fatalf("aspect-locked resize gave %dx%d, want 50x30", w, h)
	}
}

func TestAdjustmentsAreClamped(t *testing.T) {
	e := newEditor(t, &fakeFacade{})

	e.Adjust(Adjustments{Brightness: 500, Contrast: -10, Saturation: 100, Blur: 99, Grayscale: 150, Sepia: -1, HueRotate: 540})
	a := e.Adjustments()
	if a.Brightness != 200 || a.Contrast != 0 || a.Blur != 10 || a.Grayscale != 100 || a.Sepia != 0 {
		t.Fatalf("clamping failed: %+v", a)
	}
	if a.HueRotate != 180 {
		t.Fatalf("hue 540 should wrap to 180, got %d", a.HueRotate)
	}
}

func TestIdentityAdjustDoesNotDirty(t *testing.T) {
	e := newEditor(t, &fakeFacade{})

	e.Adjust(DefaultAdjustments())
	if e.Dirty() {
		t.Fatal("identity adjustments must not dirty the document")
	}
}

func TestFullGrayscaleEqualizesChannels(t *testing.T) {
	e := newEditor(t, &fakeFacade{})

	e.Adjust(Adjustments{Brightness: 100, Contrast: 100, Saturation: 100, Grayscale: 100})
	rendered := e.Render()
	c := rendered.NRGBAAt(10, 10)
	if c.R != c.G || c.G != c.B {
		t.Fatalf("grayscale pixel has unequal channels: %+v", c)
	}
}

func TestSaveCleanSendsMetadataOnly(t *testing.T) {
	facade := &fakeFacade{}
	e := newEditor(t, facade)

	e.Caption = "updated caption"
	if _, err := e.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if len(facade.uploads) != 0 {
		t.Fatal("clean document must not upload pixels")
	}
	if len(facade.updates) != 1 || *facade.updates[0].Caption != "updated caption" {
		t.Fatalf("metadata update not sent: %+v", facade.updates)
	}
}

func TestSaveDirtyUploadsDerivedItem(t *testing.T) {
	facade := &fakeFacade{}
	e := newEditor(t, facade)

	e.RotateCW()
	if _, err := e.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if len(facade.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(facade.uploads))
	}
	up := facade.uploads[0]
	if up.OriginalID != "m1" {
		t.Fatalf("derived upload must carry the original id, got %q", up.OriginalID)
	}
	if up.Filename != "photo-edited.jpg" {
		t.Fatalf("filename = %q", up.Filename)
	}
	if len(up.Tags) != 1 || up.Tags[0] != "press" {
		t.Fatalf("tags not inherited: %v", up.Tags)
	}

	// The uploaded bytes are a JPEG of the rotated render.
	decoded, err := imaging.Decode(up.Reader)
	if err != nil {
		t.Fatalf("uploaded bytes are not an image: %v", err)
	}
	if w, h := decoded.Bounds().Dx(), decoded.Bounds().Dy(); w != 60 || h != 100 {
		t.Fatalf("uploaded image is %dx%d, want 60x100", w, h)
	}
}
