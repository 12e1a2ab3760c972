package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
	"masterboxer.com/posts-admin/database"
	"masterboxer.com/posts-admin/queries"
)

var (
	messagingClient *messaging.Client
	once            sync.Once
	initError       error
)

const alertSendTimeout = 10 * time.Second

func InitFirebase(credentialsPath string) error {
	once.Do(func() {
		ctx := context.Background()

		log.Printf("[FCM] Initializing Firebase with credentials: %s", credentialsPath)

		opt := option.WithCredentialsFile(credentialsPath)
		app, err := firebase.NewApp(ctx, nil, opt)
		if err != nil {
			initError = err
			log.Printf("[FCM][ERROR] Failed to init Firebase app: %v", err)
			return
		}

		messagingClient, err = app.Messaging(ctx)
		if err != nil {
			initError = err
			log.Printf("[FCM][ERROR] Failed to get messaging client: %v", err)
			return
		}

		log.Println("[FCM] Firebase Messaging client initialized successfully")
	})

	return initError
}

func GetMessagingClient() (*messaging.Client, error) {
	if messagingClient == nil {
		log.Printf("[FCM][ERROR] Messaging client is nil (initError=%v)", initError)
		if initError == nil {
			return nil, fmt.Errorf("firebase not initialized")
		}
		return nil, initError
	}
	return messagingClient, nil
}

// MessageSender is the part of *messaging.Client the alerts need.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// RollbackNotifier pushes a topic message for every mutation that had to be
// rolled back. Committed mutations are ignored.
type RollbackNotifier struct {
	sender  MessageSender
	topic   string
	pending sync.WaitGroup
}

func NewRollbackNotifier(sender MessageSender, topic string) *RollbackNotifier {
	return &RollbackNotifier{
		sender: sender,
		topic:  topic,
	}
}

func (n *RollbackNotifier) MutationSettled(event queries.MutationEvent) {
	if event.Outcome != queries.OutcomeRolledBack {
		return
	}
	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), alertSendTimeout)
		defer cancel()
		n.Notify(ctx, event)
	}()
}

// Close waits for alerts that are still being sent.
func (n *RollbackNotifier) Close() {
	n.pending.Wait()
}

func (n *RollbackNotifier) Notify(ctx context.Context, event queries.MutationEvent) error {
	message := RollbackMessage(n.topic, event)

	response, err := n.sender.Send(ctx, message)
	if err != nil {
		log.Printf("[FCM][ERROR] Rollback alert for %s failed: %v", event.ID, err)
		return err
	}

	log.Printf("[FCM] Rollback alert sent | kind=%s id=%s response=%s", event.Kind, event.ID, response)
	return nil
}

func RollbackMessage(topic string, event queries.MutationEvent) *messaging.Message {
	keys := make([]string, 0, len(event.Keys))
	for _, key := range event.Keys {
		keys = append(keys, key.String())
	}
	reason := "unknown error"
	if event.Err != nil {
		reason = event.Err.Error()
	}

	return &messaging.Message{
		Notification: &messaging.Notification{
			Title: fmt.Sprintf("Rolled back %s", event.Kind),
			Body:  reason,
		},
		Data: map[string]string{
			"type":       "mutation_rolled_back",
			"mutationId": event.ID.String(),
			"kind":       string(event.Kind),
			"keys":       strings.Join(keys, ","),
			"settledAt":  event.SettledAt.UTC().Format(time.RFC3339),
		},
		Topic: topic,
	}
}

func DigestMessage(topic string, counts []database.RollbackCount, since time.Time) *messaging.Message {
	total := 0
	lines := []string{}
	for _, count := range counts {
		total += count.Count
		lines = append(lines, fmt.Sprintf("%s: %d", count.Kind, count.Count))
	}

	return &messaging.Message{
		Notification: &messaging.Notification{
			Title: fmt.Sprintf("%d rolled back mutations", total),
			Body:  strings.Join(lines, "\n"),
		},
		Data: map[string]string{
			"type":  "rollback_digest",
			"total": fmt.Sprintf("%d", total),
			"since": since.UTC().Format(time.RFC3339),
		},
		Topic: topic,
	}
}

// SendRollbackDigest sends one summary message. Nothing is sent when there
// were no rollbacks.
func SendRollbackDigest(ctx context.Context, sender MessageSender, topic string, counts []database.RollbackCount, since time.Time) (bool, error) {
	if len(counts) == 0 {
		log.Println("[FCM] No rollbacks to report")
		return false, nil
	}

	response, err := sender.Send(ctx, DigestMessage(topic, counts, since))
	if err != nil {
		log.Printf("[FCM][ERROR] Rollback digest failed: %v", err)
		return false, err
	}

	log.Printf("[FCM] Rollback digest sent | kinds=%d response=%s", len(counts), response)
	return true, nil
}
