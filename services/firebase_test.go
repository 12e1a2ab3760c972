package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-playground/assert/v2"
	"github.com/oklog/ulid/v2"
	"masterboxer.com/posts-admin/database"
	"masterboxer.com/posts-admin/models"
	"masterboxer.com/posts-admin/queries"
)

type fakeSender struct {
	mutex    sync.Mutex
	messages []*messaging.Message
	err      error
	sent     chan struct{}
	delay    time.Duration
}

func (s *fakeSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	time.Sleep(s.delay)
	s.mutex.Lock()
	s.messages = append(s.messages, message)
	s.mutex.Unlock()
	if s.sent != nil {
		s.sent <- struct{}{}
	}
	return "projects/test/messages/1", s.err
}

func rolledBackEvent() queries.MutationEvent {
	settled := time.Date(2024, 3, 1, 12, 0, 1, 0, time.UTC)
	return queries.MutationEvent{
		ID:        ulid.Make(),
		Kind:      queries.KindDeleteComment,
		Keys:      []models.QueryKey{models.CommentsByPostKey(7)},
		Outcome:   queries.OutcomeRolledBack,
		Err:       errors.New("failed to delete comment"),
		StartedAt: settled.Add(-time.Second),
		SettledAt: settled,
	}
}

func TestRollbackMessage(t *testing.T) {
	event := rolledBackEvent()

	message := RollbackMessage("alerts", event)

	assert.Equal(t, "alerts", message.Topic)
	assert.Equal(t, "Rolled back comment.delete", message.Notification.Title)
	assert.Equal(t, "failed to delete comment", message.Notification.Body)
	assert.Equal(t, "comments/post/7", message.Data["keys"])
	assert.Equal(t, event.ID.String(), message.Data["mutationId"])
	assert.Equal(t, "2024-03-01T12:00:01Z", message.Data["settledAt"])
}

func TestNotifierIgnoresCommitted(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewRollbackNotifier(sender, "alerts")

	event := rolledBackEvent()
	event.Outcome = queries.OutcomeCommitted
	notifier.MutationSettled(event)

	time.Sleep(10 * time.Millisecond)
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	assert.Equal(t, 0, len(sender.messages))
}

func TestNotifierSendsRollbacks(t *testing.T) {
	sender := &fakeSender{sent: make(chan struct{}, 1)}
	notifier := NewRollbackNotifier(sender, "alerts")

	notifier.MutationSettled(rolledBackEvent())

	select {
	case <-sender.sent:
	case <-time.After(time.Second):
		t.Fatal("no alert sent")
	}
	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	assert.Equal(t, 1, len(sender.messages))
}

func TestNotifyReturnsSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("quota")}
	notifier := NewRollbackNotifier(sender, "alerts")

	err := notifier.Notify(context.Background(), rolledBackEvent())

	assert.Equal(t, sender.err, err)
}

func TestSendRollbackDigest(t *testing.T) {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sender := &fakeSender{}

	sent, err := SendRollbackDigest(context.Background(), sender, "alerts", nil, since)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, sent)
	assert.Equal(t, 0, len(sender.messages))

	counts := []database.RollbackCount{
		{Kind: "post.delete", Count: 3},
		{Kind: "comment.like", Count: 1},
	}
	sent, err = SendRollbackDigest(context.Background(), sender, "alerts", counts, since)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, sent)
	assert.Equal(t, "4 rolled back mutations", sender.messages[0].Notification.Title)
	assert.Equal(t, "post.delete: 3\ncomment.like: 1", sender.messages[0].Notification.Body)
	assert.Equal(t, "2024-03-01T00:00:00Z", sender.messages[0].Data["since"])
}

func TestRollbackNotifierCloseWaitsForAlerts(t *testing.T) {
	sender := &fakeSender{delay: 50 * time.Millisecond}
	notifier := NewRollbackNotifier(sender, "alerts")

	notifier.MutationSettled(rolledBackEvent())
	notifier.MutationSettled(rolledBackEvent())
	notifier.Close()

	sender.mutex.Lock()
	defer sender.mutex.Unlock()
	assert.Equal(t, 2, len(sender.messages))
}
