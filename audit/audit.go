// Package audit records token-exchange events so the governance view can
// show who acted, for whom, and what was granted or denied. Recorders are
// best-effort; a failed write never fails the exchange it describes.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rajeshkumar-okta/courtedge-ai-demo/exchange"
)

// Event is one recorded exchange attempt.
type Event struct {
	ID              uuid.UUID `json:"id"`
	At              time.Time `json:"at"`
	AgentType       string    `json:"agent_type"`
	AgentID         string    `json:"agent_id,omitempty"`
	UserSubject     string    `json:"user_subject,omitempty"`
	UserEmail       string    `json:"user_email,omitempty"`
	AuthServerID    string    `json:"auth_server,omitempty"`
	Audience        string    `json:"audience,omitempty"`
	RequestedScopes []string  `json:"requested_scopes"`
	GrantedScopes   []string  `json:"granted_scopes"`
	Outcome         string    `json:"outcome"` // granted | denied | error | demo
	Detail          string    `json:"detail,omitempty"`
}

// FromResult converts an exchange result into an auditable event.
func FromResult(res exchange.Result, agentType, userSubject, userEmail string) Event {
	ev := Event{
		ID:              uuid.New(),
		At:              res.ExchangedAt,
		AgentType:       agentType,
		AgentID:         res.AgentID,
		UserSubject:     userSubject,
		UserEmail:       userEmail,
		AuthServerID:    res.AuthServerID,
		Audience:        res.Audience,
		RequestedScopes: res.Requested,
		GrantedScopes:   res.Scopes,
		Detail:          res.Err,
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	// Prefer the identities the scoped token itself attributes.
	if res.UserSubject != "" {
		ev.UserSubject = res.UserSubject
	}
	switch {
	case res.DemoMode:
		ev.Outcome = "demo"
	case res.AccessDenied:
		ev.Outcome = "denied"
	case res.Success:
		ev.Outcome = "granted"
	default:
		ev.Outcome = "error"
	}
	return ev
}

// Recorder persists exchange events and serves the governance log view.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
	Recent(ctx context.Context, since time.Time, limit int) ([]Event, error)
}

// MemoryRecorder keeps the most recent events in a ring buffer and mirrors
// each one to the structured log. Default when no database is configured.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
	max    int
	log    *logrus.Entry
}

// NewMemoryRecorder creates a recorder holding up to max events
// (default 512).
func NewMemoryRecorder(max int, log *logrus.Entry) *MemoryRecorder {
	if max <= 0 {
		max = 512
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &MemoryRecorder{max: max, log: log}
}

func (r *MemoryRecorder) Record(_ context.Context, ev Event) error {
	r.log.WithFields(logrus.Fields{
		"agent":     ev.AgentType,
		"user":      ev.UserSubject,
		"outcome":   ev.Outcome,
		"requested": ev.RequestedScopes,
		"granted":   ev.GrantedScopes,
	}).Info("token exchange recorded")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if len(r.events) > r.max {
		r.events = r.events[len(r.events)-r.max:]
	}
	return nil
}

func (r *MemoryRecorder) Recent(_ context.Context, since time.Time, limit int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0, limit)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].At.Before(since) {
			continue
		}
		out = append(out, r.events[i])
	}
	return out, nil
}
