package testutil

import (
	"context"
	"sync"
)

// Notification records one sent notification.
type Notification struct {
	Template  string
	Recipient string
	Variables map[string]string
}

// RecordingNotifier implements notification.Sender and keeps every send.
type RecordingNotifier struct {
	mu    sync.Mutex
	sends []Notification
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Send(ctx context.Context, template string, recipientEmail string, variables map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, Notification{
		Template:  template,
		Recipient: recipientEmail,
		Variables: variables,
	})
}

// Sends returns every recorded notification.
func (n *RecordingNotifier) Sends() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sends...)
}

func (n *RecordingNotifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = nil
}
