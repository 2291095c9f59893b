package toast

import (
	"sync"
	"time"

	"speedbet/observability"

	log "github.com/sirupsen/logrus"
)

// Type is the severity of a toast
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

const (
	// DefaultDuration is used by the severity helpers
	DefaultDuration = 5 * time.Second

	// ExitBuffer is added to a toast's duration before it is removed
	ExitBuffer = 300 * time.Millisecond
)

// Toast is a short-lived user-facing message
type Toast struct {
	ID        int64         `json:"id"`
	Type      Type          `json:"type"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Options describes a toast to show. A Duration of zero or less keeps the
// toast until it is dismissed.
type Options struct {
	Type     Type
	Title    string
	Message  string
	Duration time.Duration
}

// Sink receives toasts as they are shown and removed
type Sink interface {
	ToastShown(t Toast)
	ToastDismissed(id int64)
}

// Toaster holds the active toasts
type Toaster struct {
	mu      sync.Mutex
	nextID  int64
	toasts  []Toast
	timers  map[int64]*time.Timer
	sinks   []Sink
	buffer  time.Duration
	metrics *observability.MetricsProvider
}

// NewToaster creates an empty toaster
func NewToaster(sinks ...Sink) *Toaster {
	return &Toaster{
		timers:  make(map[int64]*time.Timer),
		sinks:   sinks,
		buffer:  ExitBuffer,
		metrics: observability.GetMetrics(),
	}
}

// AddSink registers a sink for toasts shown from now on
func (t *Toaster) AddSink(s Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sinks = append(t.sinks, s)
}

// Show appends a toast and returns its ID. IDs increase monotonically from 1.
func (t *Toaster) Show(opts Options) int64 {
	if opts.Type == "" {
		opts.Type = TypeInfo
	}

	t.mu.Lock()
	t.nextID++
	toast := Toast{
		ID:        t.nextID,
		Type:      opts.Type,
		Title:     opts.Title,
		Message:   opts.Message,
		Duration:  opts.Duration,
		CreatedAt: time.Now(),
	}
	t.toasts = append(t.toasts, toast)

	if opts.Duration > 0 {
		id := toast.ID
		t.timers[id] = time.AfterFunc(opts.Duration+t.buffer, func() {
			t.Dismiss(id)
		})
	}
	sinks := append([]Sink(nil), t.sinks...)
	t.mu.Unlock()

	t.metrics.RecordToastShown(string(toast.Type))
	log.WithFields(log.Fields{
		"id":    toast.ID,
		"type":  toast.Type,
		"title": toast.Title,
	}).Debug("Toast shown")

	for _, s := range sinks {
		s.ToastShown(toast)
	}
	return toast.ID
}

// Dismiss removes a toast. Unknown IDs are ignored.
func (t *Toaster) Dismiss(id int64) {
	t.mu.Lock()
	index := -1
	for i, toast := range t.toasts {
		if toast.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		t.mu.Unlock()
		return
	}

	t.toasts = append(t.toasts[:index], t.toasts[index+1:]...)
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
	}
	sinks := append([]Sink(nil), t.sinks...)
	t.mu.Unlock()

	for _, s := range sinks {
		s.ToastDismissed(id)
	}
}

// List returns the active toasts, oldest first
func (t *Toaster) List() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Toast(nil), t.toasts...)
}

func (t *Toaster) Success(title, message string) int64 {
	return t.Show(Options{Type: TypeSuccess, Title: title, Message: message, Duration: DefaultDuration})
}

func (t *Toaster) Error(title, message string) int64 {
	return t.Show(Options{Type: TypeError, Title: title, Message: message, Duration: DefaultDuration})
}

func (t *Toaster) Warning(title, message string) int64 {
	return t.Show(Options{Type: TypeWarning, Title: title, Message: message, Duration: DefaultDuration})
}

func (t *Toaster) Info(title, message string) int64 {
	return t.Show(Options{Type: TypeInfo, Title: title, Message: message, Duration: DefaultDuration})
}
