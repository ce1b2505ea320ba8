package bulk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/magpress/media-center/pkg/mediaclient"
)

// fakeService fails the ids it is told to and records every call.
type fakeService struct {
	failIDs map[string]bool
	calls   []string
	items   map[string]*mediaclient.MediaItem
	updates map[string]mediaclient.UpdateRequest
}

func newFakeService() *fakeService {
	return &fakeService{
		failIDs: map[string]bool{},
		items:   map[string]*mediaclient.MediaItem{},
		updates: map[string]mediaclient.UpdateRequest{},
	}
}

func (f *fakeService) fail(id string) error {
	if f.failIDs[id] {
		return &mediaclient.APIError{StatusCode: 500, Message: "server unhappy about " + id}
	}
	return nil
}

func (f *fakeService) Get(ctx context.Context, id string) (*mediaclient.MediaItem, error) {
	f.calls = append(f.calls, "get:"+id)
	if err := f.fail(id); err != nil {
		return nil, err
	}
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return &mediaclient.MediaItem{ID: id, Filename: id + ".jpg", AllowDownload: true}, nil
}

func (f *fakeService) Move(ctx context.Context, id string, folderID *uint) error {
	f.calls = append(f.calls, "move:"+id)
	return f.fail(id)
}

func (f *fakeService) Copy(ctx context.Context, id string, folderID *uint) (*mediaclient.MediaItem, error) {
	f.calls = append(f.calls, "copy:"+id)
	return &mediaclient.MediaItem{ID: id + "-copy"}, f.fail(id)
}

func (f *fakeService) Delete(ctx context.Context, id string) error {
	f.calls = append(f.calls, "delete:"+id)
	return f.fail(id)
}

func (f *fakeService) Update(ctx context.Context, id string, req mediaclient.UpdateRequest) (*mediaclient.MediaItem, error) {
	f.calls = append(f.calls, "update:"+id)
	f.updates[id] = req
	return &mediaclient.MediaItem{ID: id}, f.fail(id)
}

func (f *fakeService) Optimize(ctx context.Context, id string) error {
	f.calls = append(f.calls, "optimize:"+id)
	return f.fail(id)
}

func (f *fakeService) Download(ctx context.Context, item *mediaclient.MediaItem, w io.Writer) error {
	f.calls = append(f.calls, "download:"+item.ID)
	w.Write([]byte("bytes of " + item.ID))
	return nil
}

func (f *fakeService) BulkDownload(ctx context.Context, ids []string, w io.Writer) error {
	f.calls = append(f.calls, "archive")
	w.Write([]byte("zip"))
	return nil
}

// fakeSelection is a minimal stand-in for the library browser selection.
type fakeSelection struct {
	ids     []string
	cleared bool
}

func (s *fakeSelection) Selection() []string { return append([]string(nil), s.ids...) }
func (s *fakeSelection) ClearSelection()     { s.cleared = true; s.ids = nil }

func TestPerItemFailureDoesNotStopTheRun(t *testing.T) {
	service := newFakeService()
	service.failIDs["b"] = true
	selection := &fakeSelection{ids: []string{"a", "b", "c"}}
	orchestrator := New(service, selection)

	var progress [][2]int
	orchestrator.Progress = func(current, total int) {
		progress = append(progress, [2]int{current, total})
	}

	report, err := orchestrator.Run(context.Background(), Optimize{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Results[1].Err == nil {
		t.Fatal("failure for b should be recorded")
	}
	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Fatalf("progress = %v, want %v", progress, want)
		}
	}
}

func TestDeleteAndMoveClearSelection(t *testing.T) {
	for _, action := range []Action{Delete{}, Move{}} {
		service := newFakeService()
		selection := &fakeSelection{ids: []string{"a", "b"}}
		orchestrator := New(service, selection)
		orchestrator.Confirm = func(Action, int) bool { return true }

		if _, err := orchestrator.Run(context.Background(), action); err != nil {
			t.Fatalf("%s: %v", action.label(), err)
		}
		if !selection.cleared {
			t.Fatalf("%s should clear the selection", action.label())
		}
	}
}

func TestTagActionsKeepSelection(t *testing.T) {
	service := newFakeService()
	selection := &fakeSelection{ids: []string{"a"}}
	orchestrator := New(service, selection)

	if _, err := orchestrator.Run(context.Background(), AddTags{Tags: []string{"x"}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if selection.cleared {
		t.Fatal("tag actions must keep the selection")
	}
}

func TestConfirmerGatesDelete(t *testing.T) {
	service := newFakeService()
	selection := &fakeSelection{ids: []string{"a", "b"}}
	orchestrator := New(service, selection)

	var askedCount int
	orchestrator.Confirm = func(action Action, count int) bool {
		askedCount = count
		return false
	}

	_, err := orchestrator.Run(context.Background(), Delete{})
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if askedCount != 2 {
		t.Fatalf("confirmer saw count %d, want 2", askedCount)
	}
	if len(service.calls) != 0 {
		t.Fatalf("nothing should run after refusal, got %v", service.calls)
	}
	if selection.cleared {
		t.Fatal("refused delete must keep the selection")
	}
}

func TestAddTagsMergesCaseInsensitively(t *testing.T) {
	service := newFakeService()
	service.items["a"] = &mediaclient.MediaItem{
		ID:   "a",
		Tags: []mediaclient.Tag{{Name: "sky"}, {Name: "travel"}},
	}
	selection := &fakeSelection{ids: []string{"a"}}
	orchestrator := New(service, selection)

	if _, err := orchestrator.Run(context.Background(), AddTags{Tags: []string{"Sky", "beach"}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tags := service.updates["a"].Tags
	if len(tags) != 3 {
		t.Fatalf("tags = %v, want [sky travel beach]", tags)
	}
}

func TestRemoveTagsStripsCaseInsensitively(t *testing.T) {
	service := newFakeService()
	service.items["a"] = &mediaclient.MediaItem{
		ID:   "a",
		Tags: []mediaclient.Tag{{Name: "sky"}, {Name: "travel"}},
	}
	selection := &fakeSelection{ids: []string{"a"}}
	orchestrator := New(service, selection)

	if _, err := orchestrator.Run(context.Background(), RemoveTags{Tags: []string{"SKY"}}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tags := service.updates["a"].Tags
	if len(tags) != 1 || tags[0] != "travel" {
		t.Fatalf("tags = %v, want [travel]", tags)
	}
}

// bufferDownloader collects downloads in memory.
type bufferDownloader struct {
	files map[string]*bytes.Buffer
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (d *bufferDownloader) Create(name string) (io.WriteCloser, error) {
	if d.files == nil {
		d.files = map[string]*bytes.Buffer{}
	}
	buf := &bytes.Buffer{}
	d.files[name] = buf
	return nopCloser{buf}, nil
}

func TestDownloadWritesEachItem(t *testing.T) {
	service := newFakeService()
	selection := &fakeSelection{ids: []string{"a", "b"}}
	orchestrator := New(service, selection)

	dest := &bufferDownloader{}
	report, err := orchestrator.Run(context.Background(), Download{Dest: dest})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Succeeded != 2 {
		t.Fatalf("report = %+v", report)
	}
	if dest.files["a.jpg"].String() != "bytes of a" {
		t.Fatalf("file content = %q", dest.files["a.jpg"].String())
	}
	if selection.cleared {
		t.Fatal("download must keep the selection")
	}
}

func TestDownloadRespectsAllowDownload(t *testing.T) {
	service := newFakeService()
	service.items["a"] = &mediaclient.MediaItem{ID: "a", Filename: "a.jpg", AllowDownload: false}
	selection := &fakeSelection{ids: []string{"a"}}
	orchestrator := New(service, selection)

	report, err := orchestrator.Run(context.Background(), Download{Dest: &bufferDownloader{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("blocked download should fail the item: %+v", report)
	}
}

func TestDownloadArchiveUsesOneServerCall(t *testing.T) {
	service := newFakeService()
	selection := &fakeSelection{ids: []string{"a", "b", "c"}}
	orchestrator := New(service, selection)

	var buf bytes.Buffer
	if err := orchestrator.DownloadArchive(context.Background(), &buf); err != nil {
		t.Fatalf("DownloadArchive: %v", err)
	}
	if len(service.calls) != 1 || service.calls[0] != "archive" {
		t.Fatalf("calls = %v, want one archive call", service.calls)
	}
	if buf.String() != "zip" {
		t.Fatalf("archive bytes = %q", buf.String())
	}
}

func TestCancellationStopsBetweenItems(t *testing.T) {
	service := newFakeService()
	selection := &fakeSelection{ids: []string{"a", "b", "c"}}
	orchestrator := New(service, selection)

	ctx, cancel := context.WithCancel(context.Background())
	orchestrator.Progress = func(current, total int) {
		if current == 1 {
			cancel()
		}
	}

	report, err := orchestrator.Run(ctx, Optimize{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("only the first item should have run: %+v", report.Results)
	}
}
