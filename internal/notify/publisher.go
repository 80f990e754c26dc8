// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package notify carries world notifications to clients over NATS. Each
// observer publishes on its own subject, <prefix>.<observer id>.
package notify

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/itemcore/internal/world"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "itemcore.notify"

// Event is the wire form of a world.Notification.
type Event struct {
	Observer string    `json:"observer"`
	Kind     string    `json:"kind"`
	Holder   string    `json:"holder"`
	Index    int       `json:"index"`
	Serial   ulid.ULID `json:"serial"`
	TypeID   uint16    `json:"type_id"`
	Count    int       `json:"count"`
}

// EventOf converts a notification delivered to observer id.
func EventOf(id string, n world.Notification) Event {
	return Event{
		Observer: id,
		Kind:     n.Kind.String(),
		Holder:   n.Holder,
		Index:    n.Index,
		Serial:   n.Serial,
		TypeID:   n.TypeID,
		Count:    n.Count,
	}
}

// Conn is the part of *nats.Conn a Publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

var _ world.Observer = (*Publisher)(nil)

// Publisher is a world.Observer that forwards every notification to NATS.
// Notify never blocks the engine on the broker; failed publishes are logged
// and counted.
type Publisher struct {
	conn     Conn
	id       string
	subject  string
	logger   *slog.Logger
	failures atomic.Int64
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the logger for publish failures.
func WithPublisherLogger(l *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPublisher creates the observer for id publishing under prefix.
func NewPublisher(conn Conn, prefix, id string, opts ...PublisherOption) (*Publisher, error) {
	subject, err := Subject(prefix, id)
	if err != nil {
		return nil, err
	}
	p := &Publisher{conn: conn, id: id, subject: subject, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ObserverID implements world.Observer.
func (p *Publisher) ObserverID() string { return p.id }

// Subject returns the subject notifications are published on.
func (p *Publisher) Subject() string { return p.subject }

// Failures returns how many notifications could not be published.
func (p *Publisher) Failures() int64 { return p.failures.Load() }

// Notify implements world.Observer.
func (p *Publisher) Notify(n world.Notification) {
	data, err := json.Marshal(EventOf(p.id, n))
	if err == nil {
		err = p.conn.Publish(p.subject, data)
	}
	if err != nil {
		p.failures.Add(1)
		p.logger.Warn("notification not published",
			"subject", p.subject,
			"kind", n.Kind.String(),
			"error", err)
	}
}

// Subject joins prefix and id into a publish subject. The id must be a
// single subject token.
func Subject(prefix, id string) (string, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if id == "" || strings.ContainsAny(id, ".*> \t\r\n") {
		return "", oops.Code(CodeBadSubject).With("id", id).Errorf("observer id %q is not a subject token", id)
	}
	return prefix + "." + id, nil
}

// Subscribe delivers the events published for observer id. An id of "*"
// receives every observer's events. The returned function unsubscribes.
func Subscribe(nc *nats.Conn, prefix, id string, fn func(Event)) (func(), error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	subject := prefix + "." + id
	if id != "*" {
		var err error
		if subject, err = Subject(prefix, id); err != nil {
			return nil, err
		}
	}
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("dropping malformed notification", "subject", msg.Subject, "error", err)
			return
		}
		fn(ev)
	})
	if err != nil {
		return nil, oops.Code(CodeSubscribe).With("subject", subject).Wrap(err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
