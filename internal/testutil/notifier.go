package testutil

import (
	"context"
	"sync"
	"time"
)

// Delivery is one code handed to the Notifier.
type Delivery struct {
	Kind  string
	To    string
	Name  string
	Code  string
	Valid time.Duration
}

// RecordingNotifier captures deliveries and can be told to fail.
type RecordingNotifier struct {
	mu         sync.Mutex
	deliveries []Delivery
	Err        error
}

func (n *RecordingNotifier) SendVerificationCode(_ context.Context, to, name, code string) error {
	return n.record(Delivery{Kind: "verification", To: to, Name: name, Code: code})
}

func (n *RecordingNotifier) SendLoginCode(_ context.Context, to, name, code string, valid time.Duration) error {
	return n.record(Delivery{Kind: "login", To: to, Name: name, Code: code, Valid: valid})
}

func (n *RecordingNotifier) record(d Delivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, d)
	return n.Err
}

// SetErr changes the error returned by subsequent deliveries.
func (n *RecordingNotifier) SetErr(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Err = err
}

// Last returns the latest code of the given kind sent to the address.
func (n *RecordingNotifier) Last(kind, to string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.deliveries) - 1; i >= 0; i-- {
		d := n.deliveries[i]
		if d.Kind == kind && d.To == to {
			return d.Code, true
		}
	}
	return "", false
}

// Count returns how many deliveries of the given kind were attempted.
func (n *RecordingNotifier) Count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, d := range n.deliveries {
		if d.Kind == kind {
			c++
		}
	}
	return c
}
