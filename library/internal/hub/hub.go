// Package hub is an in-process publish/subscribe registry of book groups.
package hub

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Subscriber is one live connection. Send must not block.
type Subscriber interface {
	ID() string
	Send(e Event) error
}

type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[string]Subscriber
	log    *zap.Logger
}

func New(log *zap.Logger) *Hub {
	return &Hub{
		groups: make(map[string]map[string]Subscriber),
		log:    log.Named("hub"),
	}
}

func (h *Hub) Join(bookID string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[bookID]
	if !ok {
		g = make(map[string]Subscriber)
		h.groups[bookID] = g
	}
	g[s.ID()] = s
	h.log.Debug("join", zap.String("book", bookID), zap.String("conn", s.ID()))
}

func (h *Hub) Leave(bookID string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(bookID, s.ID())
}

func (h *Hub) leave(bookID, id string) {
	g, ok := h.groups[bookID]
	if !ok {
		return
	}
	delete(g, id)
	if len(g) == 0 {
		delete(h.groups, bookID)
	}
}

// Drop removes the subscriber from every group and returns the groups it was in.
func (h *Hub) Drop(s Subscriber) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var left []string
	for bookID, g := range h.groups {
		if _, ok := g[s.ID()]; ok {
			left = append(left, bookID)
			h.leave(bookID, s.ID())
		}
	}
	return left
}

// Size is the number of subscribers in a group.
func (h *Hub) Size(bookID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[bookID])
}

// Publish delivers e to every subscriber of the group. Failures of single
// subscribers are collected and do not stop delivery to the rest.
func (h *Hub) Publish(ctx context.Context, bookID string, e Event) error {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.groups[bookID]))
	for _, s := range h.groups[bookID] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	var err error
	for _, s := range subs {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return multierr.Append(err, ctxErr)
		}
		if sendErr := s.Send(e); sendErr != nil {
			err = multierr.Append(err, errors.Wrapf(sendErr, "send to %s", s.ID()))
		}
	}
	return err
}
