package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"bda_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowUpPayloadRoundTrip(t *testing.T) {
	task, err := NewFollowUpTask(FollowUpPayload{FollowUpID: "f1", BookingID: "b1", Channel: "email"})
	require.NoError(t, err)
	assert.Equal(t, TaskFollowUpSend, task.Type())

	got, err := ParseFollowUpPayload(task)
	require.NoError(t, err)
	assert.Equal(t, "b1", got.BookingID)
	assert.Equal(t, "email", got.Channel)
}

func TestParseFollowUpPayloadRejectsMissingIDs(t *testing.T) {
	_, err := ParseFollowUpPayload(asynq.NewTask(TaskFollowUpSend, []byte(`{"channel":"email"}`)))
	assert.Error(t, err)

	_, err = ParseFollowUpPayload(asynq.NewTask(TaskFollowUpSend, []byte(`not json`)))
	assert.Error(t, err)
}

type recordingProcessor struct {
	got []FollowUpPayload
	err error
}

func (p *recordingProcessor) ProcessFollowUp(_ context.Context, payload FollowUpPayload) error {
	p.got = append(p.got, payload)
	return p.err
}

func TestWorkerHandlerDelegatesAndSkipsRetryOnBadPayload(t *testing.T) {
	proc := &recordingProcessor{}
	w := &Worker{followUps: proc, log: logger.Nop()}

	task, err := NewFollowUpTask(FollowUpPayload{FollowUpID: "f1", BookingID: "b1", Channel: "call"})
	require.NoError(t, err)
	require.NoError(t, w.handleFollowUp(context.Background(), task))
	require.Len(t, proc.got, 1)
	assert.Equal(t, "call", proc.got[0].Channel)

	err = w.handleFollowUp(context.Background(), asynq.NewTask(TaskFollowUpSend, []byte(`{}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Len(t, proc.got, 1)
}

func TestWorkerHandlerPropagatesProcessorError(t *testing.T) {
	proc := &recordingProcessor{err: errors.New("gateway down")}
	w := &Worker{followUps: proc, log: logger.Nop()}

	task, err := NewFollowUpTask(FollowUpPayload{FollowUpID: "f1", BookingID: "b1", Channel: "whatsapp"})
	require.NoError(t, err)
	assert.EqualError(t, w.handleFollowUp(context.Background(), task), "gateway down")
}

func TestNilClientRefusesToEnqueue(t *testing.T) {
	var c *Client
	_, err := c.EnqueueFollowUp(context.Background(), FollowUpPayload{}, time.Now())
	assert.Error(t, err)
	assert.NoError(t, c.Close())
}

func TestCronRejectsBadSpecAndRunsJobs(t *testing.T) {
	c := NewCron(logger.Nop(), time.Second)
	assert.Error(t, c.Add("bad", "not a schedule", func(context.Context) error { return nil }))

	var runs atomic.Int32
	require.NoError(t, c.Add("tick", "@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	<-done
}
