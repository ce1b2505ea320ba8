package library

import (
	"context"
	"errors"
	"strings"

	"github.com/magpress/media-center/pkg/mediaclient"
)

// Updater is the slice of the API client the draft needs.
type Updater interface {
	Update(ctx context.Context, id string, req mediaclient.UpdateRequest) (*mediaclient.MediaItem, error)
}

// Draft holds in-progress metadata edits for one item. Changes live only in
// the draft until Save; Cancel throws them away.
type Draft struct {
	updater Updater
	item    *mediaclient.MediaItem

	DisplayName string
	AltText     string
	Caption     string
	Description string
	tags        []string
}

// Begin snapshots an item's metadata into an editable draft. Tags are
// normalized on the way in so add/remove matching never depends on how the
// item's tags were cased at the source.
func Begin(updater Updater, item *mediaclient.MediaItem) *Draft {
	return &Draft{
		updater:     updater,
		item:        item,
		DisplayName: item.DisplayName,
		AltText:     item.AltText,
		Caption:     item.Caption,
		Description: item.Description,
		tags:        normalizeTags(item.TagNames()),
	}
}

// normalizeTags lower-cases, trims and de-duplicates tag names, preserving
// first-seen order.
func normalizeTags(names []string) []string {
	tags := make([]string, 0, len(names))
	for _, name := range names {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" {
			continue
		}
		seen := false
		for _, existing := range tags {
			if existing == normalized {
				seen = true
				break
			}
		}
		if !seen {
			tags = append(tags, normalized)
		}
	}
	return tags
}

// Tags returns the draft's current tag list.
func (d *Draft) Tags() []string {
	return append([]string(nil), d.tags...)
}

// AddTag appends a tag. Names are lower-cased and trimmed; adding a tag that
// is already present (in any casing) is a no-op.
func (d *Draft) AddTag(name string) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return
	}
	for _, existing := range d.tags {
		if existing == normalized {
			return
		}
	}
	d.tags = append(d.tags, normalized)
}

// RemoveTag deletes a tag, matching case-insensitively.
func (d *Draft) RemoveTag(name string) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i, existing := range d.tags {
		if existing == normalized {
			d.tags = append(d.tags[:i], d.tags[i+1:]...)
			return
		}
	}
}

// Dirty reports whether the draft differs from the underlying item.
func (d *Draft) Dirty() bool {
	if d.DisplayName != d.item.DisplayName ||
		d.AltText != d.item.AltText ||
		d.Caption != d.item.Caption ||
		d.Description != d.item.Description {
		return true
	}
	original := normalizeTags(d.item.TagNames())
	if len(original) != len(d.tags) {
		return true
	}
	for i := range original {
		if original[i] != d.tags[i] {
			return true
		}
	}
	return false
}

// Save commits the draft through the facade and folds the server's response
// back into the underlying item.
func (d *Draft) Save(ctx context.Context) error {
	if d.item == nil {
		return errors.New("library: draft has no item")
	}
	if !d.Dirty() {
		return nil
	}

	tags := d.Tags()
	if tags == nil {
		tags = []string{}
	}
	updated, err := d.updater.Update(ctx, d.item.ID, mediaclient.UpdateRequest{
		DisplayName: &d.DisplayName,
		AltText:     &d.AltText,
		Caption:     &d.Caption,
		Description: &d.Description,
		Tags:        tags,
	})
	if err != nil {
		return err
	}
	*d.item = *updated
	return nil
}

// Cancel reverts the draft to the item's current metadata.
func (d *Draft) Cancel() {
	d.DisplayName = d.item.DisplayName
	d.AltText = d.item.AltText
	d.Caption = d.item.Caption
	d.Description = d.item.Description
	d.tags = normalizeTags(d.item.TagNames())
}
