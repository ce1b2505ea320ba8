// Package library holds the browsing and metadata-editing state behind a media
// library view: filters, paging, selection, folder navigation, and draft edits
// of a single item's metadata.
package library

import (
	"context"
	"strconv"
	"time"

	"github.com/magpress/media-center/pkg/mediaclient"
)

// Facade is the slice of the API client the browser needs.
type Facade interface {
	List(ctx context.Context, opts mediaclient.ListOptions) (*mediaclient.Page, error)
	FolderTree(ctx context.Context) ([]*mediaclient.FolderNode, error)
}

// DateRange scopes results to a recent window.
type DateRange int

const (
	AllTime DateRange = iota
	Today
	PastWeek
	PastMonth
	PastQuarter
)

// days the range reaches back from now.
func (r DateRange) days() int {
	switch r {
	case Today:
		return 1
	case PastWeek:
		return 7
	case PastMonth:
		return 30
	case PastQuarter:
		return 90
	}
	return 0
}

// SelectionMode controls how Select treats an already-populated selection.
type SelectionMode int

const (
	// SingleSelect replaces the selection with the clicked item.
	SingleSelect SelectionMode = iota
	// MultiSelect toggles the clicked item in and out of the selection.
	MultiSelect
)

// Result is one loaded page plus the folder tree when browsing at the root.
type Result struct {
	Items      []mediaclient.MediaItem
	Folders    []*mediaclient.FolderNode
	TotalItems int64
	TotalPages int
}

// Browser is the stateful view model behind a library screen. It is not safe
// for concurrent use; drive it from one goroutine.
type Browser struct {
	facade Facade

	search    string
	mediaType string
	sortBy    string
	sortOrder string
	dateRange DateRange
	folder    *mediaclient.Folder

	page     int
	pageSize int

	selectionMode SelectionMode
	selection     map[string]bool
	selectionSeq  []string

	// now is swappable in tests.
	now func() time.Time
}

// NewBrowser creates a browser with default sort (newest first) and paging.
func NewBrowser(facade Facade) *Browser {
	return &Browser{
		facade:    facade,
		sortBy:    "date",
		sortOrder: "desc",
		page:      1,
		pageSize:  24,
		selection: make(map[string]bool),
		now:       time.Now,
	}
}

// Page returns the current 1-based page number.
func (b *Browser) Page() int { return b.page }

// SetPage navigates without touching filters.
func (b *Browser) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	b.page = page
}

// SetPageSize changes the page size and resets to the first page.
func (b *Browser) SetPageSize(size int) {
	if size < 1 {
		size = 24
	}
	b.pageSize = size
	b.page = 1
}

// SetSearch filters by text and resets to the first page.
func (b *Browser) SetSearch(query string) {
	b.search = query
	b.page = 1
}

// SetType filters by media type ("" clears) and resets to the first page.
func (b *Browser) SetType(mediaType string) {
	b.mediaType = mediaType
	b.page = 1
}

// SetSort orders results and resets to the first page.
func (b *Browser) SetSort(key, direction string) {
	b.sortBy = key
	b.sortOrder = direction
	b.page = 1
}

// SetDateRange scopes results in time and resets to the first page.
func (b *Browser) SetDateRange(r DateRange) {
	b.dateRange = r
	b.page = 1
}

// Enter scopes browsing to a folder and resets to the first page.
func (b *Browser) Enter(folder *mediaclient.Folder) {
	b.folder = folder
	b.page = 1
}

// Home returns to the unscoped root view and resets to the first page.
func (b *Browser) Home() {
	b.folder = nil
	b.page = 1
}

// CurrentFolder returns the folder in scope, or nil at the root.
func (b *Browser) CurrentFolder() *mediaclient.Folder { return b.folder }

// options assembles the list request for the current state. The date cutoff is
// computed at call time so "past week" always means seven days before now.
func (b *Browser) options() mediaclient.ListOptions {
	opts := mediaclient.ListOptions{
		Page:      b.page,
		Limit:     b.pageSize,
		SortBy:    b.sortBy,
		SortOrder: b.sortOrder,
		Search:    b.search,
		Type:      b.mediaType,
	}
	if days := b.dateRange.days(); days > 0 {
		opts.FromDate = b.now().AddDate(0, 0, -days)
	}
	if b.folder != nil {
		opts.FolderID = strconv.FormatUint(uint64(b.folder.ID), 10)
	}
	return opts
}

// Load fetches the current page. The folder tree is included only at the root,
// matching the library view that shows folders alongside unscoped results.
func (b *Browser) Load(ctx context.Context) (*Result, error) {
	page, err := b.facade.List(ctx, b.options())
	if err != nil {
		return nil, err
	}

	result := &Result{
		Items:      page.Media,
		TotalItems: page.TotalMedia,
		TotalPages: page.TotalPages,
	}
	if b.folder == nil {
		tree, err := b.facade.FolderTree(ctx)
		if err != nil {
			return nil, err
		}
		result.Folders = tree
	}
	return result, nil
}

// SetSelectionMode switches between single and multi select. Switching does
// not clear the current selection.
func (b *Browser) SetSelectionMode(mode SelectionMode) {
	b.selectionMode = mode
}

// Select applies a click to the selection under the current mode.
func (b *Browser) Select(id string) {
	switch b.selectionMode {
	case SingleSelect:
		b.selection = map[string]bool{id: true}
		b.selectionSeq = []string{id}
	case MultiSelect:
		if b.selection[id] {
			delete(b.selection, id)
			for i, existing := range b.selectionSeq {
				if existing == id {
					b.selectionSeq = append(b.selectionSeq[:i], b.selectionSeq[i+1:]...)
					break
				}
			}
		} else {
			b.selection[id] = true
			b.selectionSeq = append(b.selectionSeq, id)
		}
	}
}

// Selected reports whether an item is in the selection.
func (b *Browser) Selected(id string) bool { return b.selection[id] }

// Selection returns the selected ids in the order they were selected.
func (b *Browser) Selection() []string {
	return append([]string(nil), b.selectionSeq...)
}

// ClearSelection empties the selection.
func (b *Browser) ClearSelection() {
	b.selection = make(map[string]bool)
	b.selectionSeq = nil
}
