package pump_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebbleos/appmanager/internal/pump"
	"github.com/rebbleos/appmanager/internal/queue"
	"github.com/rebbleos/appmanager/internal/task"
	"github.com/rebbleos/appmanager/internal/types"
)

type fakeHandle struct {
	stopped chan struct{}
}

func newFakeHandle() *fakeHandle { return &fakeHandle{stopped: make(chan struct{})} }

func (h *fakeHandle) ID() string            { return "fake" }
func (h *fakeHandle) Stop()                 { close(h.stopped) }
func (h *fakeHandle) Done() <-chan struct{} { return h.stopped }
func (h *fakeHandle) Err() error            { return nil }

func TestRunDispatchesButtonCallback(t *testing.T) {
	msgQ := queue.New[types.Message](4)
	self := newFakeHandle()

	invoked := make(chan types.ClickRef, 1)
	msgQ.TrySend(types.ButtonMessage(types.ButtonPayload{
		ClickRef: 7,
		Callback: func(ref types.ClickRef, ctx interface{}) { invoked <- ref },
	}))
	msgQ.TrySend(types.QuitMessage())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- pump.Run(ctx, pump.Deps{MsgQ: msgQ, Self: self, BlockTimeout: 20 * time.Millisecond})
	}()

	select {
	case ref := <-invoked:
		assert.Equal(t, types.ClickRef(7), ref)
	case <-time.After(time.Second):
		t.Fatal("button callback never invoked")
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pump.Run never returned after APP_QUIT")
	}

	select {
	case <-self.Done():
	default:
		t.Fatal("self.Stop() was not called on APP_QUIT")
	}
}

func TestRunDispatchesTickCallback(t *testing.T) {
	msgQ := queue.New[types.Message](4)
	self := newFakeHandle()

	invoked := make(chan types.TimeUnits, 1)
	msgQ.TrySend(types.TickMessage(types.TickPayload{
		TickUnits: types.Minute,
		Callback:  func(tm time.Time, units types.TimeUnits) { invoked <- units },
	}))
	msgQ.TrySend(types.QuitMessage())

	ctx := context.Background()
	go pump.Run(ctx, pump.Deps{MsgQ: msgQ, Self: self, BlockTimeout: 20 * time.Millisecond})

	select {
	case units := <-invoked:
		assert.Equal(t, types.Minute, units)
	case <-time.After(time.Second):
		t.Fatal("tick callback never invoked")
	}
}

func TestRunReturnsOnContextCancellation(t *testing.T) {
	msgQ := queue.New[types.Message](1)
	self := newFakeHandle()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- pump.Run(ctx, pump.Deps{MsgQ: msgQ, Self: self, BlockTimeout: 10 * time.Millisecond})
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pump.Run never observed context cancellation")
	}
}

func TestRunSelectShortcutStartsSystemForFaceApp(t *testing.T) {
	msgQ := queue.New[types.Message](4)
	self := newFakeHandle()

	var subscribed types.ClickHandler
	started := make(chan string, 1)

	deps := pump.Deps{
		MsgQ:         msgQ,
		Self:         self,
		AppType:      types.TypeFace,
		BlockTimeout: 20 * time.Millisecond,
		Click:        fakeClickHost{subscribe: func(h types.ClickHandler) { subscribed = h }},
		Starter:      fakeStarter{start: func(name string) error { started <- name; return nil }},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pump.Run(ctx, deps)

	// Click subscription happens synchronously before the receive loop
	// starts, so a short settle is enough before invoking it directly, as
	// the click subsystem would on a real SELECT press.
	require.Eventually(t, func() bool { return subscribed != nil }, time.Second, 5*time.Millisecond)
	subscribed(0, nil)

	select {
	case name := <-started:
		assert.Equal(t, "System", name)
	case <-time.After(time.Second):
		t.Fatal("select-button shortcut never requested System")
	}
}

type fakeClickHost struct {
	subscribe func(types.ClickHandler)
}

func (f fakeClickHost) SubscribeSelect(h types.ClickHandler) { f.subscribe(h) }
func (f fakeClickHost) UnsubscribeAll()                      {}

type fakeStarter struct {
	start func(string) error
}

func (f fakeStarter) Start(name string) error { return f.start(name) }

var _ task.Handle = (*fakeHandle)(nil)
