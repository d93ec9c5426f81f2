// Package router fans parsed messages out to per-action subscribers.
//
// Every raw message moves through received, enveloped and dispatched, and ends
// either consumed or dropped. Routing has no side effects beyond invoking
// subscribers, and never lets a failure escape to the transport callback.
package router

import (
	"fmt"
	"sync"

	"github.com/vitwit/walletbridge/logger"
	"github.com/vitwit/walletbridge/metrics"
	"github.com/vitwit/walletbridge/parser"
	"github.com/vitwit/walletbridge/types"
)

// State is the routing state of one raw message.
type State string

const (
	StateReceived   State = "received"
	StateEnveloped  State = "enveloped"
	StateDispatched State = "dispatched"
	StateConsumed   State = "consumed"
	StateDropped    State = "dropped"
)

type HandlerFunc func(types.Message)

// DropFunc observes dropped messages. err explains why.
type DropFunc func(raw string, err error)

type subscription struct {
	id uint64
	fn HandlerFunc
}

type routeKey struct {
	domain types.Domain
	action types.Action
}

type Router struct {
	parser  *parser.Parser
	log     logger.Logger
	metrics metrics.Recorder

	mu       sync.RWMutex
	handlers map[routeKey]subscription
	nextID   uint64
	onDrop   DropFunc
}

func New(p *parser.Parser, log logger.Logger, rec metrics.Recorder) *Router {
	if log == nil {
		log = logger.NoopLogger{}
	}
	rec = metrics.OrNoop(rec)
	if p == nil {
		p = parser.New(log, false)
	}
	return &Router{
		parser:   p,
		log:      logger.WithComponent(log, "router"),
		metrics:  rec,
		handlers: make(map[routeKey]subscription),
	}
}

// Handle subscribes fn to one action. A second subscription for the same action
// replaces the first. The returned func unsubscribes and is safe to call twice.
func (r *Router) Handle(domain types.Domain, action types.Action, fn HandlerFunc) (unsubscribe func()) {
	key := routeKey{domain: domain, action: action}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.handlers[key] = subscription{id: id, fn: fn}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.handlers[key]; ok && cur.id == id {
			delete(r.handlers, key)
		}
	}
}

// On subscribes a handler typed to the concrete message M.
func On[M types.Message](r *Router, domain types.Domain, action types.Action, fn func(M)) func() {
	return r.Handle(domain, action, func(msg types.Message) {
		if m, ok := msg.(M); ok {
			fn(m)
		}
	})
}

// OnDrop installs the diagnostic hook for dropped messages.
func (r *Router) OnDrop(fn DropFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDrop = fn
}

// Subscribed reports whether an action currently has a subscriber.
func (r *Router) Subscribed(domain types.Domain, action types.Action) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[routeKey{domain: domain, action: action}]
	return ok
}

// Route moves one raw message through the pipeline and returns where it ended.
func (r *Router) Route(raw string) State {
	r.metrics.IncCounter(metrics.MessagesReceived, nil)

	var (
		msg types.Message
		err error
	)
	if parser.IsLegacyConnected(raw) {
		// keep msg a true nil on failure, not a typed nil pointer
		var legacy *types.WalletConnectedMessage
		if legacy, err = parser.LegacyConnected(raw); err == nil {
			msg = legacy
		}
	} else {
		msg, err = r.parser.Parse(raw)
	}
	if err != nil {
		return r.drop(raw, msg, err)
	}

	return r.dispatch(raw, msg)
}

// Dispatch hands an already parsed message to its subscriber.
func (r *Router) Dispatch(msg types.Message) State {
	return r.dispatch("", msg)
}

func (r *Router) dispatch(raw string, msg types.Message) (state State) {
	h := msg.Header()
	labels := metrics.Labels(string(h.Type), string(h.Action))

	r.mu.RLock()
	sub, ok := r.handlers[routeKey{domain: h.Type, action: h.Action}]
	r.mu.RUnlock()
	if !ok {
		r.log.Warn("no subscriber for message", map[string]any{"type": h.Type, "action": h.Action})
		return r.drop(raw, msg, types.NewError(types.ErrUnknownMessage, "no subscriber for %s/%s", h.Type, h.Action))
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("subscriber panicked", map[string]any{"type": h.Type, "action": h.Action, "panic": fmt.Sprint(rec)})
			r.metrics.IncCounter(metrics.Errors, labels)
			state = StateConsumed
		}
	}()

	sub.fn(msg)
	r.metrics.IncCounter(metrics.MessagesRouted, labels)
	return StateConsumed
}

func (r *Router) drop(raw string, msg types.Message, err error) State {
	var labels map[string]string
	if msg != nil {
		h := msg.Header()
		labels = metrics.Labels(string(h.Type), string(h.Action))
	}
	r.metrics.IncCounter(metrics.MessagesDropped, labels)
	r.log.Debug("dropped message", map[string]any{"error": err.Error()})

	r.mu.RLock()
	hook := r.onDrop
	r.mu.RUnlock()
	if hook != nil {
		hook(raw, err)
	}
	return StateDropped
}
