package sync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zenjispace/zenjid/internal/auth"
)

type fakePusher struct {
	mu    sync.Mutex
	calls int

	started chan struct{} // signalled at the start of each push, when set
	gate    chan struct{} // blocks each push until closed, when set
}

func (p *fakePusher) SyncOut(_ context.Context) error {
	if p.started != nil {
		p.started <- struct{}{}
	}
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return nil
}

func (p *fakePusher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeProbe struct {
	mu      sync.Mutex
	session *auth.Session
}

func (f *fakeProbe) GetSession() *auth.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func signedInProbe() *fakeProbe {
	return &fakeProbe{session: &auth.Session{CreatedAt: time.Now()}}
}

// A burst of mutations inside the debounce window becomes exactly one push.
func TestAutoSync_CoalescesBurst(t *testing.T) {
	pusher := &fakePusher{}
	worker := NewAutoSync(pusher, signedInProbe(), 30*time.Millisecond, testLogger())
	worker.Start(context.Background())
	defer worker.Stop()

	for i := 0; i < 10; i++ {
		worker.Notify()
	}

	time.Sleep(200 * time.Millisecond)
	if got := pusher.count(); got != 1 {
		t.Errorf("pushes after a 10-notify burst = %d, want 1", got)
	}
}

// Notifications arriving while a push is in flight collapse into one trailing
// push.
func TestAutoSync_TrailingPushAfterInFlight(t *testing.T) {
	pusher := &fakePusher{
		started: make(chan struct{}, 2),
		gate:    make(chan struct{}),
	}
	worker := NewAutoSync(pusher, signedInProbe(), time.Millisecond, testLogger())
	worker.Start(context.Background())
	defer worker.Stop()

	worker.Notify()
	<-pusher.started // first push is now in flight

	for i := 0; i < 5; i++ {
		worker.Notify()
	}
	close(pusher.gate)

	<-pusher.started // the single trailing push
	time.Sleep(100 * time.Millisecond)
	if got := pusher.count(); got != 2 {
		t.Errorf("pushes = %d, want 2 (original plus one trailing)", got)
	}
}

// With nobody signed in, notifications are dropped silently.
func TestAutoSync_SkipsWithoutSession(t *testing.T) {
	pusher := &fakePusher{}
	worker := NewAutoSync(pusher, &fakeProbe{}, time.Millisecond, testLogger())
	worker.Start(context.Background())
	defer worker.Stop()

	worker.Notify()
	time.Sleep(50 * time.Millisecond)
	if got := pusher.count(); got != 0 {
		t.Errorf("pushes without a session = %d, want 0", got)
	}
}

func TestAutoSync_StopWithoutStart(t *testing.T) {
	worker := NewAutoSync(&fakePusher{}, &fakeProbe{}, time.Millisecond, testLogger())
	worker.Stop() // must not panic or hang
}

func TestAutoSync_StopHaltsWorker(t *testing.T) {
	pusher := &fakePusher{}
	worker := NewAutoSync(pusher, signedInProbe(), time.Millisecond, testLogger())
	worker.Start(context.Background())
	worker.Stop()

	worker.Notify()
	time.Sleep(50 * time.Millisecond)
	if got := pusher.count(); got != 0 {
		t.Errorf("pushes after Stop = %d, want 0", got)
	}
}
