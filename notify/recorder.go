package notify

import (
	"context"
	"sync"
)

// Alert is one recorded notification.
type Alert struct {
	Title   string
	Message Message
}

// Recorder keeps every alert in memory and answers confirmations with Answer. Hosts
// use it in tests and to surface the last error in status lines.
type Recorder struct {
	Answer bool

	mu     sync.Mutex
	alerts []Alert
}

// Alert implements Notifier.
func (r *Recorder) Alert(_ context.Context, msg Message, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, Alert{Title: title, Message: msg})
	return nil
}

// Confirm implements Notifier.
func (r *Recorder) Confirm(context.Context, Message, string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Answer, nil
}

// Alerts returns a copy of the recorded alerts.
func (r *Recorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Alert(nil), r.alerts...)
}

// Reset forgets recorded alerts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = nil
}
