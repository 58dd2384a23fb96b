package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebbleos/appmanager/internal/task"
)

func TestSpawnRunsEntry(t *testing.T) {
	sched := task.NewGoroutine()
	ran := make(chan struct{})

	h, err := sched.Spawn(task.SpawnOptions{
		Name: "test",
		Entry: func(ctx context.Context, self task.Handle) {
			close(ran)
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, h.ID())

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("entry never ran")
	}

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("handle never became done")
	}
	assert.NoError(t, h.Err())
}

func TestStopCancelsContext(t *testing.T) {
	sched := task.NewGoroutine()
	cancelled := make(chan struct{})

	h, err := sched.Spawn(task.SpawnOptions{
		Name: "test",
		Entry: func(ctx context.Context, self task.Handle) {
			<-ctx.Done()
			close(cancelled)
		},
	})
	require.NoError(t, err)

	h.Stop()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("stop never propagated to context")
	}
}

func TestSelfHandleMatchesReturnedHandle(t *testing.T) {
	sched := task.NewGoroutine()
	idCh := make(chan string, 1)

	h, err := sched.Spawn(task.SpawnOptions{
		Name: "test",
		Entry: func(ctx context.Context, self task.Handle) {
			idCh <- self.ID()
		},
	})
	require.NoError(t, err)

	select {
	case id := <-idCh:
		assert.Equal(t, h.ID(), id)
	case <-time.After(time.Second):
		t.Fatal("entry never received its own handle")
	}
}

func TestPanicIsRecoveredAndSurfacedOnErr(t *testing.T) {
	sched := task.NewGoroutine()

	h, err := sched.Spawn(task.SpawnOptions{
		Name: "panicker",
		Entry: func(ctx context.Context, self task.Handle) {
			panic("boom")
		},
	})
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("handle never became done after panic")
	}

	require.Error(t, h.Err())
	assert.Contains(t, h.Err().Error(), "panicker")
	assert.Contains(t, h.Err().Error(), "boom")
}

func TestEachSpawnGetsDistinctID(t *testing.T) {
	sched := task.NewGoroutine()
	h1, err := sched.Spawn(task.SpawnOptions{Entry: func(ctx context.Context, self task.Handle) {}})
	require.NoError(t, err)
	h2, err := sched.Spawn(task.SpawnOptions{Entry: func(ctx context.Context, self task.Handle) {}})
	require.NoError(t, err)

	assert.NotEqual(t, h1.ID(), h2.ID())
}
