package models

import (
	"testing"

	"gorm.io/gorm"
)

func folder(id uint, name string, parent *uint) Folder {
	f := Folder{Name: name, ParentID: parent}
	f.Model = gorm.Model{ID: id}
	return f
}

func TestBuildFolderTreeNestsChildren(t *testing.T) {
	two := uint(2)
	folders := []Folder{
		folder(1, "Photos", nil),
		folder(2, "Articles", nil),
		folder(3, "Covers", &two),
	}

	tree := BuildFolderTree(folders)
	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	if tree[0].Name != "Photos" || tree[1].Name != "Articles" {
		t.Fatalf("root order not preserved: %s, %s", tree[0].Name, tree[1].Name)
	}
	if len(tree[1].Children) != 1 || tree[1].Children[0].Name != "Covers" {
		t.Fatalf("children not attached: %+v", tree[1].Children)
	}
}

func TestBuildFolderTreeOrphanBecomesRoot(t *testing.T) {
	missing := uint(99)
	tree := BuildFolderTree([]Folder{folder(1, "Lost", &missing)})
	if len(tree) != 1 || tree[0].Name != "Lost" {
		t.Fatalf("orphan should surface as a root: %+v", tree)
	}
}

func TestNormalizeTag(t *testing.T) {
	cases := map[string]string{
		"  Travel ": "travel",
		"SUMMER":    "summer",
		"ok":        "ok",
	}
	for in, want := range cases {
		if got := NormalizeTag(in); got != want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTypeFromMime(t *testing.T) {
	cases := map[string]MediaType{
		"image/png":       MediaImage,
		"video/mp4":       MediaVideo,
		"audio/mpeg":      MediaAudio,
		"application/pdf": MediaDocument,
		"text/plain":      MediaDocument,
	}
	for mime, want := range cases {
		if got := TypeFromMime(mime); got != want {
			t.Errorf("TypeFromMime(%q) = %q, want %q", mime, got, want)
		}
	}
}
