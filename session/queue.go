package session

import (
	"errors"
	"time"

	"github.com/vitwit/walletbridge/metrics"
	"github.com/vitwit/walletbridge/transport"
	"github.com/vitwit/walletbridge/types"
)

// operation is one queued bridge request.
type operation struct {
	name   string
	action types.Action
	// build runs at send time so session-derived fields are current.
	build func() (string, error)
	// afterSend runs once the frontend accepted the payload.
	afterSend func()

	enqueuedAt time.Time
	attempts   int
	waiting    bool
}

// queue holds at most one operation in flight. processing is cleared only by
// the panel close (or timeout, discard and hide failure paths).
type queue struct {
	pending    []*operation
	current    *operation
	processing bool

	advanceCancel func()
	retryCancel   func()
	timeoutCancel func()
	directCancel  func()
}

func (c *Controller) enqueue(op *operation) error {
	if !c.available {
		return c.emitError(types.NewError(types.ErrTransportUnavailable, "%s: transport unavailable", op.name), "")
	}
	op.enqueuedAt = c.now()
	c.pending = append(c.pending, op)
	c.metrics.IncCounter(metrics.OperationsEnqueued, metrics.Labels(string(types.DomainFor(op.action)), string(op.action)))
	c.log.Debug("operation enqueued", map[string]any{"operation": op.name, "queued": len(c.pending)})
	c.drain()
	return nil
}

func (c *Controller) drain() {
	if c.processing || len(c.pending) == 0 {
		return
	}
	if !c.available {
		c.discardAll(types.NewError(types.ErrTransportUnavailable, "transport unavailable"))
		return
	}

	op := c.pending[0]
	c.pending[0] = nil
	c.pending = c.pending[1:]
	c.current = op
	c.processing = true

	if timeout := c.cfg.OperationTimeout.Std(); timeout > 0 {
		c.timeoutCancel = c.sched.After(timeout, func() {
			c.timeoutCancel = nil
			c.handleTimeout(op)
		})
	}

	c.start(op)
}

func (c *Controller) start(op *operation) {
	if err := c.adapter.Open(); err != nil {
		c.fail(op, types.NewError(types.ErrTransportUnavailable, "%s: failed to open panel: %v", op.name, err))
		return
	}
	if !c.loaded {
		if err := c.adapter.Load(c.cfg.PanelURL()); err != nil {
			c.fail(op, types.NewError(types.ErrTransportUnavailable, "%s: failed to load panel: %v", op.name, err))
			return
		}
		c.loaded = true
	}
	c.trySend(op)
}

// trySend sends when the frontend is ready, otherwise waits RetryDelay (or for
// OnReady, whichever comes first) up to RetryAttempts times.
func (c *Controller) trySend(op *operation) {
	if c.current != op {
		return
	}
	op.waiting = false

	if c.webviewReady {
		payload, err := op.build()
		if err != nil {
			c.fail(op, types.AsBridgeError(err, types.ErrValidation))
			return
		}

		err = c.adapter.Send(payload)
		if err == nil {
			c.metrics.IncCounter(metrics.RequestsSent, metrics.Labels(string(types.DomainFor(op.action)), string(op.action)))
			c.log.Debug("request sent", map[string]any{"operation": op.name, "attempt": op.attempts + 1})
			if op.afterSend != nil {
				op.afterSend()
			}
			return
		}
		if !errors.Is(err, transport.ErrNotReady) {
			c.fail(op, types.NewError(types.ErrTransportUnavailable, "%s: send failed: %v", op.name, err))
			return
		}
		c.webviewReady = false
	}

	if op.attempts < c.cfg.RetryAttempts {
		op.attempts++
		op.waiting = true
		c.log.Debug("frontend not ready, retrying", map[string]any{"operation": op.name, "attempt": op.attempts})
		c.retryCancel = c.sched.After(c.cfg.RetryDelay.Std(), func() {
			c.retryCancel = nil
			c.trySend(op)
		})
		return
	}

	c.fail(op, types.NewError(types.ErrTransportNotReady, "%s: frontend not ready", op.name))
}

// resumeWaiting sends a retrying operation as soon as the frontend is ready.
func (c *Controller) resumeWaiting() {
	op := c.current
	if op == nil || !op.waiting {
		return
	}
	if c.retryCancel != nil {
		c.retryCancel()
		c.retryCancel = nil
	}
	c.trySend(op)
}

// fail reports an operation error and hides the panel so the queue advances.
func (c *Controller) fail(op *operation, be *types.BridgeError) {
	if c.current != op {
		return
	}
	c.emitError(be, "")
	c.hide()
}

func (c *Controller) handleTimeout(op *operation) {
	if c.current != op || !c.processing {
		return
	}
	c.fail(op, types.NewError(types.ErrTimeout, "%s: timeout", op.name))
}

// finish releases the in-flight slot and schedules the next operation.
func (c *Controller) finish() {
	op := c.current
	c.current = nil
	c.processing = false
	if c.retryCancel != nil {
		c.retryCancel()
		c.retryCancel = nil
	}
	if c.timeoutCancel != nil {
		c.timeoutCancel()
		c.timeoutCancel = nil
	}
	if op != nil {
		c.metrics.ObserveLatency(metrics.OperationLatency, c.now().Sub(op.enqueuedAt), metrics.Labels(string(types.DomainFor(op.action)), string(op.action)))
		c.log.Debug("operation finished", map[string]any{"operation": op.name, "queued": len(c.pending)})
	}

	if len(c.pending) == 0 || c.advanceCancel != nil {
		return
	}
	c.advanceCancel = c.sched.After(c.cfg.QueueAdvanceDelay.Std(), func() {
		c.advanceCancel = nil
		c.drain()
	})
}

// discardAll drops the in-flight and queued operations, reporting each.
func (c *Controller) discardAll(reason *types.BridgeError) {
	ops := c.pending
	if c.current != nil {
		ops = append([]*operation{c.current}, ops...)
	}
	c.pending = nil
	c.current = nil
	c.processing = false
	c.cancelTimers()

	for _, op := range ops {
		c.metrics.IncCounter(metrics.OperationsDiscarded, metrics.Labels(string(types.DomainFor(op.action)), string(op.action)))
		c.emit(types.Error{Err: &types.BridgeError{
			Code:    types.ErrQueueDiscarded,
			Message: op.name + ": " + reason.Message,
			Data:    reason.Code,
		}})
	}
}

func (c *Controller) cancelTimers() {
	for _, cancel := range []*func(){&c.advanceCancel, &c.retryCancel, &c.timeoutCancel, &c.directCancel} {
		if *cancel != nil {
			(*cancel)()
			*cancel = nil
		}
	}
}
