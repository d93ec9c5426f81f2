// Package session owns the wallet session, the request queue and the public
// operations of the bridge. All controller methods must run on the Scheduler.
package session

import (
	"errors"
	"time"

	"github.com/vitwit/walletbridge/builder"
	"github.com/vitwit/walletbridge/logger"
	"github.com/vitwit/walletbridge/metrics"
	"github.com/vitwit/walletbridge/parser"
	"github.com/vitwit/walletbridge/router"
	"github.com/vitwit/walletbridge/transport"
	"github.com/vitwit/walletbridge/types"
	"github.com/vitwit/walletbridge/utils"
)

// Config wires a Controller. Bridge, Adapter and Scheduler are required.
type Config struct {
	Bridge    *types.BridgeConfig
	Adapter   transport.Adapter
	Scheduler Scheduler

	Router    *router.Router
	Builder   *builder.Builder
	Validator *utils.Validator
	Logger    logger.Logger
	Metrics   metrics.Recorder
	// Emit receives host events in order. It runs on the scheduler and must not block.
	Emit func(types.Event)
	Now  func() time.Time
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	Address      string                  `json:"address"`
	Chain        string                  `json:"chain"`
	Network      string                  `json:"network"`
	Connected    bool                    `json:"connected"`
	User         *types.UserInfo         `json:"user,omitempty"`
	Wallet       *types.WalletCredential `json:"wallet,omitempty"`
	WebviewReady bool                    `json:"webviewReady"`
	Available    bool                    `json:"available"`
	Processing   bool                    `json:"processing"`
	Current      string                  `json:"current,omitempty"`
	QueueLength  int                     `json:"queueLength"`
}

type Controller struct {
	cfg       *types.BridgeConfig
	adapter   transport.Adapter
	sched     Scheduler
	router    *router.Router
	builder   *builder.Builder
	validator *utils.Validator
	log       logger.Logger
	metrics   metrics.Recorder
	emitFn    func(types.Event)
	now       func() time.Time

	// session
	address   string
	chain     string
	network   string
	connected bool
	user      *types.UserInfo
	wallet    *types.WalletCredential

	// panel
	webviewReady bool
	loaded       bool
	available    bool

	queue
	unsubscribe []func()
}

func New(cfg Config) (*Controller, error) {
	if cfg.Bridge == nil || cfg.Adapter == nil || cfg.Scheduler == nil {
		return nil, errors.New("session: bridge config, adapter and scheduler are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NoopLogger{}
	}
	cfg.Metrics = metrics.OrNoop(cfg.Metrics)
	if cfg.Router == nil {
		cfg.Router = router.New(parser.New(cfg.Logger, cfg.Bridge.LogRawMessages), cfg.Logger, cfg.Metrics)
	}
	if cfg.Builder == nil {
		cfg.Builder = builder.New()
	}
	if cfg.Validator == nil {
		vc, err := utils.ValidatorConfigFromBridge(cfg.Bridge)
		if err != nil {
			return nil, err
		}
		cfg.Validator = utils.NewValidator(vc)
	}
	if cfg.Emit == nil {
		cfg.Emit = func(types.Event) {}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Controller{
		cfg:       cfg.Bridge,
		adapter:   cfg.Adapter,
		sched:     cfg.Scheduler,
		router:    cfg.Router,
		builder:   cfg.Builder,
		validator: cfg.Validator,
		log:       logger.WithComponent(cfg.Logger, "session"),
		metrics:   cfg.Metrics,
		emitFn:    cfg.Emit,
		now:       cfg.Now,
		available: true,
	}
	c.subscribe()
	c.adapter.SetListener(c)
	return c, nil
}

// Detach unsubscribes from the router and the adapter.
func (c *Controller) Detach() {
	for _, unsub := range c.unsubscribe {
		unsub()
	}
	c.unsubscribe = nil
	c.adapter.SetListener(nil)
	c.cancelTimers()
}

// Transport callbacks. They may arrive on any goroutine and are posted onto the scheduler.

func (c *Controller) OnMessageReceived(raw string) {
	c.sched.Post(func() {
		if c.cfg.LogRawMessages {
			c.log.Debug("raw message", map[string]any{"raw": raw})
		}
		c.router.Route(raw)
	})
}

func (c *Controller) OnReady() {
	c.sched.Post(c.handleReady)
}

func (c *Controller) OnClosed() {
	c.sched.Post(c.handleClosed)
}

func (c *Controller) OnUnavailable(err error) {
	c.sched.Post(func() { c.handleUnavailable(err) })
}

func (c *Controller) handleReady() {
	c.webviewReady = true
	c.log.Debug("webview ready", nil)
	c.emit(types.WebViewReady{})
	c.resumeWaiting()
}

func (c *Controller) handleClosed() {
	c.emit(types.WebViewClosed{})
	if !c.processing {
		// a close with nothing in flight must not advance the queue again
		return
	}
	c.finish()
}

func (c *Controller) handleUnavailable(err error) {
	c.log.Warn("transport unavailable", map[string]any{"error": errString(err)})
	c.available = false
	c.webviewReady = false
	c.loaded = false
	c.discardAll(types.NewError(types.ErrTransportUnavailable, "transport unavailable: %s", errString(err)))
}

// State returns a copy of the session.
func (c *Controller) State() Snapshot {
	s := Snapshot{
		Address:      c.address,
		Chain:        c.chain,
		Network:      c.network,
		Connected:    c.connected,
		WebviewReady: c.webviewReady,
		Available:    c.available,
		Processing:   c.processing,
		QueueLength:  len(c.pending),
	}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	if c.wallet != nil {
		w := *c.wallet
		s.Wallet = &w
	}
	if c.current != nil {
		s.Current = c.current.name
	}
	return s
}

// Session mutation

func (c *Controller) setConnected(connected bool) {
	if c.connected == connected {
		return
	}
	c.connected = connected
	c.emit(types.ConnectionStatusChanged{Connected: connected})
}

func (c *Controller) setWallet(w types.WalletCredential) {
	w.Symbol = types.DisplaySymbol(w.Chain, w.Symbol)
	if c.wallet != nil && *c.wallet == w {
		return
	}
	c.wallet = &w
	if w.Address != "" {
		c.address = w.Address
	}
	if w.Chain != "" {
		c.chain = w.Chain
	}
	if w.Network != "" {
		c.network = w.Network
	}
	c.emit(types.WalletInfoUpdated{Wallet: w})
}

func (c *Controller) clearSession() {
	c.address = ""
	c.chain = ""
	c.network = ""
	c.user = nil
	c.wallet = nil
	c.setConnected(false)
}

func (c *Controller) emit(ev types.Event) {
	if e, ok := ev.(types.Error); ok {
		c.metrics.IncCounter(metrics.Errors, map[string]string{"action": e.Err.Code})
		c.log.Warn("bridge error", map[string]any{"code": e.Err.Code, "error": e.Err.Message})
	}
	c.emitFn(ev)
}

func (c *Controller) emitError(err error, code string) *types.BridgeError {
	be := types.AsBridgeError(err, code)
	c.emit(types.Error{Err: be})
	return be
}

func (c *Controller) hide() {
	if err := c.adapter.Hide(); err != nil {
		c.log.Warn("hide failed", map[string]any{"error": err.Error()})
		// nothing will report the close, so release the queue here
		if c.processing {
			c.finish()
		}
	}
}

func (c *Controller) sessionChain() string {
	if c.chain != "" {
		return c.chain
	}
	return c.cfg.DefaultChain
}

func (c *Controller) sessionNetwork() string {
	if c.network != "" {
		return c.network
	}
	return c.cfg.DefaultNetwork
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
