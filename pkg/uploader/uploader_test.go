package uploader

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/magpress/media-center/pkg/mediaclient"
)

// fakeService records upload order and fails the filenames it is told to.
type fakeService struct {
	mu       sync.Mutex
	order    []string
	inFlight int
	maxSeen  int
	failWith map[string]error
}

func (f *fakeService) Upload(ctx context.Context, req mediaclient.UploadRequest) (*mediaclient.MediaItem, error) {
	f.mu.Lock()
	f.order = append(f.order, req.Filename)
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.failWith[req.Filename]; ok {
		return nil, err
	}
	if req.Progress != nil {
		req.Progress(50)
		req.Progress(100)
	}
	return &mediaclient.MediaItem{ID: "id-" + req.Filename, Filename: req.Filename}, nil
}

func imageFile(name string, size int) File {
	return FileFromBytes(name, "image/jpeg", make([]byte, size))
}

func TestRunUploadsSequentiallyInOrder(t *testing.T) {
	service := &fakeService{}
	queue := New(service, Config{})

	queue.Add(imageFile("a.jpg", 10), imageFile("b.jpg", 10), imageFile("c.jpg", 10))
	if err := queue.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"a.jpg", "b.jpg", "c.jpg"}
	if len(service.order) != len(want) {
		t.Fatalf("expected %d uploads, got %v", len(want), service.order)
	}
	for i, name := range want {
		if service.order[i] != name {
			t.Fatalf("upload order %v, want %v", service.order, want)
		}
	}
	if service.maxSeen != 1 {
		t.Fatalf("uploads overlapped: max in flight %d", service.maxSeen)
	}
	for _, task := range queue.Tasks() {
		if task.State != TaskCompleted {
			t.Fatalf("task %s finished in state %s", task.File.Name, task.State)
		}
		if task.Progress != 100 {
			t.Fatalf("task %s progress %d, want 100", task.File.Name, task.Progress)
		}
	}
}

func TestMiddleFailureDoesNotStopTheBatch(t *testing.T) {
	service := &fakeService{
		failWith: map[string]error{
			"b.jpg": &mediaclient.APIError{StatusCode: http.StatusRequestEntityTooLarge, Message: "File exceeds the maximum upload size"},
		},
	}
	queue := New(service, Config{})

	var terminal []string
	queue.OnComplete = func(task *Task, completed, total int) {
		terminal = append(terminal, task.File.Name)
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
	}

	queue.Add(imageFile("a.jpg", 10), imageFile("b.jpg", 10), imageFile("c.jpg", 10))
	if err := queue.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	tasks := queue.Tasks()
	states := map[string]TaskState{}
	for _, task := range tasks {
		states[task.File.Name] = task.State
	}
	if states["a.jpg"] != TaskCompleted || states["c.jpg"] != TaskCompleted {
		t.Fatalf("healthy files should complete: %v", states)
	}
	if states["b.jpg"] != TaskError {
		t.Fatalf("b.jpg should be in error state, got %s", states["b.jpg"])
	}
	for _, task := range tasks {
		if task.File.Name == "b.jpg" && task.Err != "File exceeds the maximum upload size" {
			t.Fatalf("error message not taken from the API error: %q", task.Err)
		}
	}
	if len(terminal) != 3 {
		t.Fatalf("OnComplete fired %d times, want 3", len(terminal))
	}
}

func TestAddRejectsByTypeAndSize(t *testing.T) {
	queue := New(&fakeService{}, Config{
		Accept:  []string{"image/*"},
		MaxSize: 100,
	})

	accepted, rejected := queue.Add(
		imageFile("ok.jpg", 50),
		FileFromBytes("notes.pdf", "application/pdf", make([]byte, 10)),
		imageFile("huge.jpg", 500),
	)

	if len(accepted) != 1 || accepted[0].File.Name != "ok.jpg" {
		t.Fatalf("accepted = %+v", accepted)
	}
	if len(rejected) != 2 {
		t.Fatalf("rejected = %+v", rejected)
	}
	if len(queue.Tasks()) != 1 {
		t.Fatal("rejected files must never enter the queue")
	}
}

func TestMimePatterns(t *testing.T) {
	cases := []struct {
		pattern string
		mime    string
		want    bool
	}{
		{"image/*", "image/png", true},
		{"image/*", "video/mp4", false},
		{"application/pdf", "application/pdf", true},
		{"application/pdf", "application/zip", false},
		{"*", "anything/else", true},
	}
	for _, tc := range cases {
		if got := mimeMatches(tc.pattern, tc.mime); got != tc.want {
			t.Errorf("mimeMatches(%q, %q) = %v, want %v", tc.pattern, tc.mime, got, tc.want)
		}
	}
}

func TestRetryRerunsOnlyFailedTasks(t *testing.T) {
	service := &fakeService{
		failWith: map[string]error{"a.jpg": errors.New("boom")},
	}
	queue := New(service, Config{})
	accepted, _ := queue.Add(imageFile("a.jpg", 10))
	if err := queue.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	task := accepted[0]
	if task.State != TaskError {
		t.Fatalf("setup: task should have failed, state=%s", task.State)
	}

	// Completed tasks cannot be retried.
	service.failWith = nil
	if err := queue.Retry(context.Background(), task.ID); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if task.State != TaskCompleted || task.Progress != 100 {
		t.Fatalf("after retry: state=%s progress=%d", task.State, task.Progress)
	}
	if err := queue.Retry(context.Background(), task.ID); err == nil {
		t.Fatal("retrying a completed task should fail")
	}
}

func TestCancellationStopsBetweenUploads(t *testing.T) {
	service := &fakeService{}
	queue := New(service, Config{Pause: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	queue.OnComplete = func(task *Task, completed, total int) {
		if task.File.Name == "a.jpg" {
			cancel()
		}
	}

	queue.Add(imageFile("a.jpg", 10), imageFile("b.jpg", 10))
	err := queue.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run should surface cancellation, got %v", err)
	}

	states := map[string]TaskState{}
	for _, task := range queue.Tasks() {
		states[task.File.Name] = task.State
	}
	if states["a.jpg"] != TaskCompleted {
		t.Fatalf("first task should complete before cancel: %v", states)
	}
	if states["b.jpg"] != TaskPending {
		t.Fatalf("second task should stay pending after cancel: %v", states)
	}
}
