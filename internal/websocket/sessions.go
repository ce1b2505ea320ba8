package websocket

import (
	"context"
	"sync"
	"time"
)

// SessionState is the lifecycle state of an out-of-band upload session.
type SessionState string

const (
	SessionUploading SessionState = "uploading"
	SessionCompleted SessionState = "completed"
	SessionFailed    SessionState = "failed"
	SessionCanceled  SessionState = "canceled"
)

// Session tracks one server-side upload (e.g. upload-from-url) so clients can
// poll progress or cancel it while it runs.
type Session struct {
	ID        string       `json:"id"`
	UserID    uint         `json:"user_id"`
	Filename  string       `json:"filename"`
	State     SessionState `json:"state"`
	Progress  int          `json:"progress"`
	MediaID   string       `json:"media_id,omitempty"`
	Error     string       `json:"error,omitempty"`
	StartedAt time.Time    `json:"started_at"`

	endedAt time.Time
	cancel  context.CancelFunc
}

// sessionRetention is how long finished sessions stay queryable, so a final
// progress poll still resolves before the entry is pruned.
const sessionRetention = time.Hour

// SessionRegistry holds in-flight upload sessions. Terminal sessions past the
// retention window are pruned whenever a new session starts.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

var (
	registry     *SessionRegistry
	registryOnce sync.Once
)

func GetSessionRegistry() *SessionRegistry {
	registryOnce.Do(func() {
		registry = &SessionRegistry{sessions: make(map[string]*Session), now: time.Now}
	})
	return registry
}

// Start registers a new session and returns a context canceled when the
// session is canceled.
func (r *SessionRegistry) Start(id string, userID uint, filename string) (*Session, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	session := &Session{
		ID:        id,
		UserID:    userID,
		Filename:  filename,
		State:     SessionUploading,
		StartedAt: r.now(),
		cancel:    cancel,
	}
	r.prune()
	r.sessions[id] = session
	r.mu.Unlock()
	return session, ctx
}

// prune drops terminal sessions older than the retention window. Callers hold
// the write lock.
func (r *SessionRegistry) prune() {
	cutoff := r.now().Add(-sessionRetention)
	for id, session := range r.sessions {
		if session.State != SessionUploading && session.endedAt.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}

// Get returns a session scoped to its owner.
func (r *SessionRegistry) Get(id string, userID uint) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok || session.UserID != userID {
		return nil, false
	}
	return session, true
}

// SetProgress updates a session's progress percentage and notifies listeners.
func (r *SessionRegistry) SetProgress(id string, progress int) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok && session.State == SessionUploading {
		session.Progress = progress
	}
	r.mu.Unlock()
	if ok {
		GetManager().SendUploadProgress(session.UserID, id, progress)
	}
}

// Complete marks a session finished with the created media id.
func (r *SessionRegistry) Complete(id, mediaID string) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok {
		session.State = SessionCompleted
		session.Progress = 100
		session.MediaID = mediaID
		session.endedAt = r.now()
	}
	r.mu.Unlock()
	if ok {
		GetManager().SendUploadComplete(session.UserID, id, mediaID, nil)
	}
}

// Fail marks a session failed with a message.
func (r *SessionRegistry) Fail(id, message string) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok && session.State == SessionUploading {
		session.State = SessionFailed
		session.Error = message
		session.endedAt = r.now()
	}
	r.mu.Unlock()
	if ok {
		GetManager().SendUploadError(session.UserID, id, message)
	}
}

// Cancel aborts an in-flight session. Returns false for unknown, foreign or
// already-terminal sessions.
func (r *SessionRegistry) Cancel(id string, userID uint) bool {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if !ok || session.UserID != userID || session.State != SessionUploading {
		r.mu.Unlock()
		return false
	}
	session.State = SessionCanceled
	session.endedAt = r.now()
	cancel := session.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	GetManager().Send(userID, &Event{Type: EventUploadCanceled, UploadID: id})
	return true
}
