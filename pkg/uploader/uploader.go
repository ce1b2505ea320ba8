// Package uploader runs batched media uploads strictly one at a time, the way
// the upload panel consumes them: per-file progress, per-file error
// containment, and a fixed pause between files so progress remains readable.
package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/magpress/media-center/pkg/mediaclient"

	"github.com/google/uuid"
)

// Service is the slice of the API client the queue needs. *mediaclient.Client
// satisfies it.
type Service interface {
	Upload(ctx context.Context, req mediaclient.UploadRequest) (*mediaclient.MediaItem, error)
}

// TaskState is the lifecycle state of one queued upload.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskUploading
	TaskCompleted
	TaskError
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskUploading:
		return "uploading"
	case TaskCompleted:
		return "completed"
	case TaskError:
		return "error"
	}
	return "unknown"
}

// File is one candidate for upload. Open is called once per attempt so a
// retried task re-reads from the start.
type File struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.Reader, error)
}

// FileFromBytes wraps in-memory content as a File.
func FileFromBytes(name, mimeType string, content []byte) File {
	return File{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(content)),
		Open: func() (io.Reader, error) {
			return bytes.NewReader(content), nil
		},
	}
}

// Task is one accepted file moving through the queue.
type Task struct {
	ID       string
	File     File
	State    TaskState
	Progress int // 0-100; pinned to 100 on completion
	Media    *mediaclient.MediaItem
	Err      string
}

// Rejection records a file that never entered the queue.
type Rejection struct {
	Name   string
	Reason string
}

// Config tunes queue behavior.
type Config struct {
	// Accept lists allowed MIME patterns ("image/*", "application/pdf").
	// Empty accepts everything.
	Accept []string
	// MaxSize rejects larger files. Zero means no limit.
	MaxSize int64
	// FolderID is the destination folder for every file in the batch.
	FolderID *uint
	// Tags applied to every uploaded file.
	Tags []string
	// Pause between consecutive uploads. Zero disables the pause.
	Pause time.Duration
}

// Queue uploads accepted files one at a time in the order they were added.
type Queue struct {
	service Service
	config  Config

	mu       sync.Mutex
	tasks    []*Task
	rejected []Rejection
	running  bool

	// OnProgress receives per-task progress as whole percentages.
	OnProgress func(taskID string, percent int)
	// OnComplete fires after each task reaches a terminal state, with the
	// count of finished tasks and the batch total.
	OnComplete func(task *Task, completed, total int)
}

// New creates a queue over the given upload service.
func New(service Service, config Config) *Queue {
	return &Queue{service: service, config: config}
}

// Add validates files and queues the accepted ones. Rejected files are
// recorded and never enter the queue.
func (q *Queue) Add(files ...File) (accepted []*Task, rejected []Rejection) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, file := range files {
		if reason := q.rejectionReason(file); reason != "" {
			rejection := Rejection{Name: file.Name, Reason: reason}
			q.rejected = append(q.rejected, rejection)
			rejected = append(rejected, rejection)
			continue
		}
		task := &Task{ID: uuid.NewString(), File: file, State: TaskPending}
		q.tasks = append(q.tasks, task)
		accepted = append(accepted, task)
	}
	return accepted, rejected
}

func (q *Queue) rejectionReason(file File) string {
	if file.Open == nil {
		return "file content is not readable"
	}
	if q.config.MaxSize > 0 && file.Size > q.config.MaxSize {
		return fmt.Sprintf("file exceeds the maximum size of %d bytes", q.config.MaxSize)
	}
	if len(q.config.Accept) == 0 {
		return ""
	}
	for _, pattern := range q.config.Accept {
		if mimeMatches(pattern, file.MimeType) {
			return ""
		}
	}
	return fmt.Sprintf("file type %s is not accepted", file.MimeType)
}

// mimeMatches supports exact types, "type/*" wildcards and "*".
func mimeMatches(pattern, mimeType string) bool {
	if pattern == "*" || pattern == "*/*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return strings.HasPrefix(mimeType, prefix+"/")
	}
	return pattern == mimeType
}

// Tasks returns a snapshot of the queue.
func (q *Queue) Tasks() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Task(nil), q.tasks...)
}

// Rejections returns every file rejected so far.
func (q *Queue) Rejections() []Rejection {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Rejection(nil), q.rejected...)
}

// Run uploads every pending task in order. One failed upload records its error
// on the task and the batch continues. Run returns the context error if
// canceled mid-batch; tasks not reached stay pending.
func (q *Queue) Run(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return errors.New("uploader: queue is already running")
	}
	q.running = true
	pending := make([]*Task, 0, len(q.tasks))
	for _, task := range q.tasks {
		if task.State == TaskPending {
			pending = append(pending, task)
		}
	}
	total := len(q.tasks)
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.running = false
		q.mu.Unlock()
	}()

	for i, task := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		q.upload(ctx, task)
		q.notifyComplete(task, total)

		if q.config.Pause > 0 && i < len(pending)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(q.config.Pause):
			}
		}
	}
	return ctx.Err()
}

// Retry re-runs one failed task.
func (q *Queue) Retry(ctx context.Context, taskID string) error {
	q.mu.Lock()
	var task *Task
	for _, t := range q.tasks {
		if t.ID == taskID {
			task = t
			break
		}
	}
	total := len(q.tasks)
	q.mu.Unlock()

	if task == nil {
		return fmt.Errorf("uploader: no task with id %s", taskID)
	}
	if task.State != TaskError {
		return fmt.Errorf("uploader: task %s is not in the error state", taskID)
	}

	q.mu.Lock()
	task.State = TaskPending
	task.Err = ""
	task.Progress = 0
	q.mu.Unlock()

	q.upload(ctx, task)
	q.notifyComplete(task, total)
	if task.State == TaskError {
		return errors.New(task.Err)
	}
	return nil
}

func (q *Queue) upload(ctx context.Context, task *Task) {
	q.setState(task, TaskUploading)

	reader, err := task.File.Open()
	if err != nil {
		q.fail(task, fmt.Sprintf("could not read file: %v", err))
		return
	}

	media, err := q.service.Upload(ctx, mediaclient.UploadRequest{
		Filename: task.File.Name,
		Reader:   reader,
		Size:     task.File.Size,
		FolderID: q.config.FolderID,
		Tags:     q.config.Tags,
		Progress: func(percent int) {
			q.setProgress(task, percent)
		},
	})
	if err != nil {
		var apiErr *mediaclient.APIError
		if errors.As(err, &apiErr) {
			q.fail(task, apiErr.Message)
		} else {
			q.fail(task, err.Error())
		}
		return
	}

	q.mu.Lock()
	task.State = TaskCompleted
	task.Progress = 100
	task.Media = media
	q.mu.Unlock()
	if q.OnProgress != nil {
		q.OnProgress(task.ID, 100)
	}
}

func (q *Queue) setState(task *Task, state TaskState) {
	q.mu.Lock()
	task.State = state
	q.mu.Unlock()
}

func (q *Queue) setProgress(task *Task, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	q.mu.Lock()
	task.Progress = percent
	q.mu.Unlock()
	if q.OnProgress != nil {
		q.OnProgress(task.ID, percent)
	}
}

func (q *Queue) fail(task *Task, message string) {
	q.mu.Lock()
	task.State = TaskError
	task.Err = message
	q.mu.Unlock()
}

func (q *Queue) notifyComplete(task *Task, total int) {
	if q.OnComplete == nil {
		return
	}
	q.mu.Lock()
	completed := 0
	for _, t := range q.tasks {
		if t.State == TaskCompleted || t.State == TaskError {
			completed++
		}
	}
	q.mu.Unlock()
	q.OnComplete(task, completed, total)
}
