package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techsynergy/campus-backend/internal/model"
)

type fakeDeliverer struct {
	got []*model.Notification
	err error
}

func (f *fakeDeliverer) Deliver(_ context.Context, n *model.Notification) error {
	f.got = append(f.got, n)
	return f.err
}

type fakeChecker struct {
	ids []uuid.UUID
}

func (f *fakeChecker) CheckSubmission(_ context.Context, id uuid.UUID) error {
	f.ids = append(f.ids, id)
	return nil
}

type fakePublisher struct {
	calls int
	err   error
}

func (f *fakePublisher) PublishDue(context.Context) (int, error) {
	f.calls++
	return 1, f.err
}

func TestNotificationWorkerHandle(t *testing.T) {
	ctx := context.Background()
	d := &fakeDeliverer{}
	w := NewNotificationWorker(d, nil, zerolog.Nop())

	require.NoError(t, w.handle(ctx, `{"user_id":4,"type":"assignment_graded","title":"Graded"}`))
	require.Len(t, d.got, 1)
	assert.Equal(t, 4, d.got[0].UserID)
	assert.Equal(t, model.NotificationAssignmentGraded, d.got[0].Type)

	assert.ErrorIs(t, w.handle(ctx, `not json`), errMalformed)
	assert.ErrorIs(t, w.handle(ctx, `{"title":"no recipient"}`), errMalformed)

	d.err = errors.New("db down")
	err := w.handle(ctx, `{"user_id":4}`)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errMalformed)
}

func TestPlagiarismWorkerHandle(t *testing.T) {
	ctx := context.Background()
	c := &fakeChecker{}
	w := NewPlagiarismWorker(c, nil, zerolog.Nop())

	id := uuid.New()
	require.NoError(t, w.handle(ctx, `{"submission_id":"`+id.String()+`"}`))
	assert.Equal(t, []uuid.UUID{id}, c.ids)

	assert.ErrorIs(t, w.handle(ctx, `{"submission_id":"nope"}`), errMalformed)
	assert.ErrorIs(t, w.handle(ctx, `{}`), errMalformed)
}

func TestExamScheduler(t *testing.T) {
	p := &fakePublisher{}

	_, err := NewExamScheduler(p, "every so often", zerolog.Nop())
	assert.Error(t, err)

	s, err := NewExamScheduler(p, "@every 1m", zerolog.Nop())
	require.NoError(t, err)

	s.runOnce()
	p.err = errors.New("store unavailable")
	s.runOnce()
	assert.Equal(t, 2, p.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
	assert.Equal(t, 3, p.calls, "Start publishes once before waiting for the schedule")
}
