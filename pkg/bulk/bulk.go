// Package bulk applies one action across a selection of media items,
// sequentially and with per-item error containment: a failure on one item is
// recorded and the batch moves on.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/magpress/media-center/pkg/mediaclient"
)

func normalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Service is the slice of the API client the orchestrator needs.
type Service interface {
	Get(ctx context.Context, id string) (*mediaclient.MediaItem, error)
	Move(ctx context.Context, id string, folderID *uint) error
	Copy(ctx context.Context, id string, folderID *uint) (*mediaclient.MediaItem, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, req mediaclient.UpdateRequest) (*mediaclient.MediaItem, error)
	Optimize(ctx context.Context, id string) error
	Download(ctx context.Context, item *mediaclient.MediaItem, w io.Writer) error
	BulkDownload(ctx context.Context, ids []string, w io.Writer) error
}

// Selection owns the set of items an action applies to. *library.Browser
// satisfies it.
type Selection interface {
	Selection() []string
	ClearSelection()
}

// Downloader abstracts where downloaded files land, so the same orchestrator
// works against a filesystem, an archive, or a test buffer.
type Downloader interface {
	Create(name string) (io.WriteCloser, error)
}

// Confirmer gates destructive actions. Returning false aborts the run before
// any item is touched.
type Confirmer func(action Action, count int) bool

// Action is one operation applied across the selection. The concrete types
// below carry each action's parameters.
type Action interface {
	label() string
	destructive() bool
}

// Move puts every selected item into a folder (nil = root).
type Move struct{ FolderID *uint }

// Copy duplicates every selected item into a folder (nil = same folder).
type Copy struct{ FolderID *uint }

// Delete removes every selected item.
type Delete struct{}

// AddTags appends tags to every selected item.
type AddTags struct{ Tags []string }

// RemoveTags strips tags from every selected item.
type RemoveTags struct{ Tags []string }

// UpdateMetadata applies shared metadata fields to every selected item.
type UpdateMetadata struct{ Request mediaclient.UpdateRequest }

// Optimize re-encodes every selected image server-side.
type Optimize struct{}

// MakePrivate marks every selected item private.
type MakePrivate struct{}

// MakePublic marks every selected item public.
type MakePublic struct{}

// Download saves every selected item's file through a Downloader.
type Download struct{ Dest Downloader }

func (Move) label() string           { return "move" }
func (Copy) label() string           { return "copy" }
func (Delete) label() string         { return "delete" }
func (AddTags) label() string        { return "add tags" }
func (RemoveTags) label() string     { return "remove tags" }
func (UpdateMetadata) label() string { return "update metadata" }
func (Optimize) label() string       { return "optimize" }
func (MakePrivate) label() string    { return "make private" }
func (MakePublic) label() string     { return "make public" }
func (Download) label() string       { return "download" }

func (Delete) destructive() bool         { return true }
func (Move) destructive() bool           { return false }
func (Copy) destructive() bool           { return false }
func (AddTags) destructive() bool        { return false }
func (RemoveTags) destructive() bool     { return false }
func (UpdateMetadata) destructive() bool { return false }
func (Optimize) destructive() bool       { return false }
func (MakePrivate) destructive() bool    { return false }
func (MakePublic) destructive() bool     { return false }
func (Download) destructive() bool       { return false }

// ErrNotConfirmed is returned when the Confirmer rejects a destructive run.
var ErrNotConfirmed = errors.New("bulk: action not confirmed")

// ItemResult is the outcome for one item.
type ItemResult struct {
	ID  string
	Err error
}

// Report summarizes one run.
type Report struct {
	Action    string
	Results   []ItemResult
	Succeeded int
	Failed    int
}

// Orchestrator runs actions over a selection.
type Orchestrator struct {
	service   Service
	selection Selection

	// Confirm gates destructive actions when set.
	Confirm Confirmer
	// Progress receives (current, total) after each item, completed or not.
	Progress func(current, total int)
}

// New creates an orchestrator bound to a selection.
func New(service Service, selection Selection) *Orchestrator {
	return &Orchestrator{service: service, selection: selection}
}

// Run applies the action to every selected item in selection order. Context
// cancellation stops the run between items and surfaces the context error;
// per-item failures do not.
func (o *Orchestrator) Run(ctx context.Context, action Action) (*Report, error) {
	ids := o.selection.Selection()
	report := &Report{Action: action.label()}
	if len(ids) == 0 {
		return report, nil
	}

	if action.destructive() && o.Confirm != nil && !o.Confirm(action, len(ids)) {
		return nil, ErrNotConfirmed
	}

	total := len(ids)
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		err := o.apply(ctx, action, id)
		report.Results = append(report.Results, ItemResult{ID: id, Err: err})
		if err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
		if o.Progress != nil {
			o.Progress(i+1, total)
		}
	}

	// Moving or deleting invalidates the selection; everything else keeps it
	// so follow-up actions can reuse it.
	switch action.(type) {
	case Delete, Move:
		o.selection.ClearSelection()
	}
	return report, nil
}

func (o *Orchestrator) apply(ctx context.Context, action Action, id string) error {
	switch a := action.(type) {
	case Move:
		return o.service.Move(ctx, id, a.FolderID)
	case Copy:
		_, err := o.service.Copy(ctx, id, a.FolderID)
		return err
	case Delete:
		return o.service.Delete(ctx, id)
	case AddTags:
		return o.editTags(ctx, id, a.Tags, nil)
	case RemoveTags:
		return o.editTags(ctx, id, nil, a.Tags)
	case UpdateMetadata:
		_, err := o.service.Update(ctx, id, a.Request)
		return err
	case Optimize:
		return o.service.Optimize(ctx, id)
	case MakePrivate:
		return o.setPrivacy(ctx, id, true)
	case MakePublic:
		return o.setPrivacy(ctx, id, false)
	case Download:
		return o.downloadOne(ctx, id, a.Dest)
	}
	return fmt.Errorf("bulk: unsupported action %T", action)
}

func (o *Orchestrator) setPrivacy(ctx context.Context, id string, private bool) error {
	_, err := o.service.Update(ctx, id, mediaclient.UpdateRequest{IsPrivate: &private})
	return err
}

// editTags merges the item's current tags with additions and removals, then
// replaces the full set.
func (o *Orchestrator) editTags(ctx context.Context, id string, add, remove []string) error {
	item, err := o.service.Get(ctx, id)
	if err != nil {
		return err
	}

	tags := []string{}
	removed := make(map[string]bool, len(remove))
	for _, name := range remove {
		removed[normalizeTag(name)] = true
	}
	seen := make(map[string]bool)
	for _, name := range item.TagNames() {
		normalized := normalizeTag(name)
		if removed[normalized] || seen[normalized] {
			continue
		}
		seen[normalized] = true
		tags = append(tags, normalized)
	}
	for _, name := range add {
		normalized := normalizeTag(name)
		if normalized == "" || removed[normalized] || seen[normalized] {
			continue
		}
		seen[normalized] = true
		tags = append(tags, normalized)
	}

	_, err = o.service.Update(ctx, id, mediaclient.UpdateRequest{Tags: tags})
	return err
}

func (o *Orchestrator) downloadOne(ctx context.Context, id string, dest Downloader) error {
	if dest == nil {
		return errors.New("bulk: download needs a destination")
	}
	item, err := o.service.Get(ctx, id)
	if err != nil {
		return err
	}
	if !item.AllowDownload {
		return fmt.Errorf("bulk: downloads are disabled for %s", item.Filename)
	}

	w, err := dest.Create(item.Filename)
	if err != nil {
		return err
	}
	if err := o.service.Download(ctx, item, w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// DownloadArchive fetches the whole selection as one zip from the server
// instead of item by item. The selection is kept.
func (o *Orchestrator) DownloadArchive(ctx context.Context, w io.Writer) error {
	ids := o.selection.Selection()
	if len(ids) == 0 {
		return errors.New("bulk: nothing selected")
	}
	return o.service.BulkDownload(ctx, ids, w)
}
