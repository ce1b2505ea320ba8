package library

import (
	"context"
	"testing"
	"time"

	"github.com/magpress/media-center/pkg/mediaclient"
)

// fakeFacade records the options each Load sent.
type fakeFacade struct {
	lastOpts  mediaclient.ListOptions
	treeCalls int
	page      mediaclient.Page
}

func (f *fakeFacade) List(ctx context.Context, opts mediaclient.ListOptions) (*mediaclient.Page, error) {
	f.lastOpts = opts
	return &f.page, nil
}

func (f *fakeFacade) FolderTree(ctx context.Context) ([]*mediaclient.FolderNode, error) {
	f.treeCalls++
	return []*mediaclient.FolderNode{}, nil
}

func TestFilterChangesResetPage(t *testing.T) {
	browser := NewBrowser(&fakeFacade{})

	reset := map[string]func(){
		"search":     func() { browser.SetSearch("cats") },
		"type":       func() { browser.SetType("image") },
		"sort":       func() { browser.SetSort("name", "asc") },
		"date range": func() { browser.SetDateRange(PastWeek) },
		"enter":      func() { browser.Enter(&mediaclient.Folder{ID: 3}) },
		"home":       func() { browser.Home() },
		"page size":  func() { browser.SetPageSize(48) },
	}
	for name, change := range reset {
		browser.SetPage(5)
		change()
		if browser.Page() != 1 {
			t.Errorf("%s change should reset page to 1, got %d", name, browser.Page())
		}
	}

	// Plain navigation must not reset.
	browser.SetPage(4)
	if browser.Page() != 4 {
		t.Fatalf("SetPage(4) gave page %d", browser.Page())
	}
}

func TestDateRangeCutoffs(t *testing.T) {
	facade := &fakeFacade{}
	browser := NewBrowser(facade)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	browser.now = func() time.Time { return now }

	cases := []struct {
		r    DateRange
		days int
	}{
		{Today, 1},
		{PastWeek, 7},
		{PastMonth, 30},
		{PastQuarter, 90},
	}
	for _, tc := range cases {
		browser.SetDateRange(tc.r)
		if _, err := browser.Load(context.Background()); err != nil {
			t.Fatalf("Load: %v", err)
		}
		want := now.AddDate(0, 0, -tc.days)
		if !facade.lastOpts.FromDate.Equal(want) {
			t.Errorf("range %v: from_date %v, want %v", tc.r, facade.lastOpts.FromDate, want)
		}
	}

	browser.SetDateRange(AllTime)
	if _, err := browser.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !facade.lastOpts.FromDate.IsZero() {
		t.Fatalf("all-time should send no cutoff, got %v", facade.lastOpts.FromDate)
	}
}

func TestFolderScopeAndTreeOnlyAtRoot(t *testing.T) {
	facade := &fakeFacade{}
	browser := NewBrowser(facade)

	if _, err := browser.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if facade.treeCalls != 1 {
		t.Fatalf("root load should fetch the folder tree once, got %d", facade.treeCalls)
	}

	browser.Enter(&mediaclient.Folder{ID: 42, Name: "Covers"})
	if _, err := browser.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if facade.lastOpts.FolderID != "42" {
		t.Fatalf("folder scope not sent: %q", facade.lastOpts.FolderID)
	}
	if facade.treeCalls != 1 {
		t.Fatal("folder-scoped load should not refetch the tree")
	}

	browser.Home()
	if _, err := browser.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if facade.lastOpts.FolderID != "" {
		t.Fatalf("home should clear the folder scope, got %q", facade.lastOpts.FolderID)
	}
}

func TestSingleSelectReplaces(t *testing.T) {
	browser := NewBrowser(&fakeFacade{})
	browser.SetSelectionMode(SingleSelect)

	browser.Select("a")
	browser.Select("b")

	if browser.Selected("a") {
		t.Fatal("single select should drop the previous item")
	}
	sel := browser.Selection()
	if len(sel) != 1 || sel[0] != "b" {
		t.Fatalf("selection = %v, want [b]", sel)
	}
}

func TestMultiSelectToggles(t *testing.T) {
	browser := NewBrowser(&fakeFacade{})
	browser.SetSelectionMode(MultiSelect)

	browser.Select("a")
	browser.Select("b")
	browser.Select("a") // toggles off

	if browser.Selected("a") {
		t.Fatal("second click should deselect")
	}
	sel := browser.Selection()
	if len(sel) != 1 || sel[0] != "b" {
		t.Fatalf("selection = %v, want [b]", sel)
	}

	browser.ClearSelection()
	if len(browser.Selection()) != 0 {
		t.Fatal("ClearSelection should empty the selection")
	}
}
