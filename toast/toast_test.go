package toast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu        sync.Mutex
	shown     []Toast
	dismissed []int64
}

func (r *recordingSink) ToastShown(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, t)
}

func (r *recordingSink) ToastDismissed(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dismissed = append(r.dismissed, id)
}

func (r *recordingSink) dismissedIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.dismissed...)
}

func contains(toaster *Toaster, id int64) bool {
	for _, t := range toaster.List() {
		if t.ID == id {
			return true
		}
	}
	return false
}

func TestShow_MonotonicIDs(t *testing.T) {
	t.Parallel()
	toaster := NewToaster()

	first := toaster.Show(Options{Title: "a"})
	second := toaster.Success("b", "done")
	third := toaster.Error("c", "failed")

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
	assert.Equal(t, int64(3), third)

	list := toaster.List()
	require.Len(t, list, 3)
	assert.Equal(t, TypeInfo, list[0].Type)
	assert.Equal(t, TypeSuccess, list[1].Type)
	assert.Equal(t, DefaultDuration, list[1].Duration)
}

func TestShow_AutoRemovesAfterDurationAndBuffer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
	}{
		{name: "short", duration: 20 * time.Millisecond},
		{name: "longer", duration: 120 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			toaster := NewToaster()
			created := time.Now()

			id := toaster.Show(Options{Type: TypeWarning, Title: "Heads up", Duration: tt.duration})
			assert.True(t, contains(toaster, id))

			assert.Eventually(t, func() bool { return !contains(toaster, id) }, 5*time.Second, 5*time.Millisecond)
			assert.GreaterOrEqual(t, time.Since(created), tt.duration+ExitBuffer)
		})
	}
}

func TestShow_NonPositiveDurationPersists(t *testing.T) {
	t.Parallel()

	for _, d := range []time.Duration{0, -time.Second} {
		toaster := NewToaster()
		id := toaster.Show(Options{Type: TypeError, Title: "Sticky", Duration: d})

		time.Sleep(ExitBuffer + 50*time.Millisecond)
		assert.True(t, contains(toaster, id), "duration %v", d)

		toaster.Dismiss(id)
		assert.False(t, contains(toaster, id))
	}
}

func TestDismiss_UnknownIsNoop(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	toaster := NewToaster(sink)

	id := toaster.Info("Hello", "")
	toaster.Dismiss(999)
	assert.Len(t, toaster.List(), 1)
	assert.Empty(t, sink.dismissedIDs())

	toaster.Dismiss(id)
	toaster.Dismiss(id)
	assert.Empty(t, toaster.List())
	assert.Equal(t, []int64{id}, sink.dismissedIDs())
}

func TestSinks(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	toaster := NewToaster()
	toaster.AddSink(sink)

	id := toaster.Show(Options{Type: TypeSuccess, Title: "Joined", Message: "BTC 5", Duration: 10 * time.Millisecond})

	sink.mu.Lock()
	require.Len(t, sink.shown, 1)
	assert.Equal(t, "Joined", sink.shown[0].Title)
	sink.mu.Unlock()

	assert.Eventually(t, func() bool {
		ids := sink.dismissedIDs()
		return len(ids) == 1 && ids[0] == id
	}, 2*time.Second, 5*time.Millisecond)
}
