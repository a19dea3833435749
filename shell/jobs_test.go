package shell

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestJobManagerSubmitAndWaitCompleted(t *testing.T) {
	jm := NewJobManager()
	job := jm.Submit(context.Background(), "test", func(ctx context.Context, cancelled *atomic.Bool) (interface{}, error) {
		return "done", nil
	})

	require.NoError(t, job.Wait(context.Background()))
	assert.Equal(t, JobCompleted, job.Status())
	result, err := job.Result()
	require.NoError(t, err)
	assert.Equal(t, "done", result)
}

func TestJobManagerCancelIsCooperative(t *testing.T) {
	jm := NewJobManager()
	started := make(chan struct{})
	job := jm.Submit(context.Background(), "long", func(ctx context.Context, cancelled *atomic.Bool) (interface{}, error) {
		close(started)
		for !cancelled.Load() {
			time.Sleep(time.Millisecond)
		}
		return nil, nil
	})

	<-started
	assert.True(t, jm.Cancel(job.ID))
	require.NoError(t, job.Wait(context.Background()))
	assert.Equal(t, JobCancelled, job.Status())
}

func TestJobManagerCancelUnknownID(t *testing.T) {
	jm := NewJobManager()
	assert.False(t, jm.Cancel("does-not-exist"))
}

func TestJobManagerListAndGet(t *testing.T) {
	jm := NewJobManager()
	job := jm.Submit(context.Background(), "x", func(ctx context.Context, cancelled *atomic.Bool) (interface{}, error) {
		return nil, nil
	})
	require.NoError(t, job.Wait(context.Background()))

	got, ok := jm.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)
	assert.Len(t, jm.List(), 1)
}
