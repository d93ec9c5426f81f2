// Package walletbridge connects a host application to a web-hosted wallet and
// authentication panel. Requests are queued one at a time, replies are routed
// to typed handlers and the resulting session changes are published as events.
package walletbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/vitwit/walletbridge/deeplink"
	"github.com/vitwit/walletbridge/logger"
	"github.com/vitwit/walletbridge/metrics"
	"github.com/vitwit/walletbridge/session"
	"github.com/vitwit/walletbridge/transport"
	"github.com/vitwit/walletbridge/types"
	"github.com/vitwit/walletbridge/utils"
)

const defaultCallTimeout = 10 * time.Second

// Bridge is the host-facing entry point. All methods are safe for concurrent use.
type Bridge struct {
	config    *types.BridgeConfig
	adapter   transport.Adapter
	logger    logger.Logger
	metrics   metrics.Recorder
	validator *utils.Validator
	matcher   *deeplink.Matcher
	timeout   time.Duration

	sched session.Scheduler
	loop  *session.Loop
	ctrl  *session.Controller
	// running is set while Run drives the built-in loop.
	running atomic.Bool

	feed  event.FeedOf[types.Event]
	scope event.SubscriptionScope
	relay *relay

	closeOnce sync.Once
}

// New validates cfg and wires a Bridge onto adapter. A nil cfg uses types.DefaultConfig.
// Unless WithScheduler is given, operations fail with NOT_RUNNING until Run is called.
func New(cfg *types.BridgeConfig, adapter transport.Adapter, opts ...Option) (*Bridge, error) {
	if adapter == nil {
		return nil, types.NewError(types.ErrConfigError, "transport adapter is required")
	}
	if cfg == nil {
		cfg = types.DefaultConfig()
	}
	c := *cfg

	b := &Bridge{
		config:  &c,
		adapter: adapter,
		matcher: deeplink.NewMatcher(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.timeout > 0 {
		b.config.OperationTimeout = types.Duration(b.timeout)
	}

	if err := utils.ValidateBridgeConfig(b.config); err != nil {
		return nil, types.AsBridgeError(err, types.ErrConfigError)
	}

	if b.logger == nil {
		b.logger = logger.NewBridgeLogger(b.config.EnableDebugLogs)
	}
	if b.metrics == nil && b.config.EnableMetrics {
		rec, err := metrics.NewPrometheusRecorder(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		b.metrics = rec
	}
	b.metrics = metrics.OrNoop(b.metrics)
	if b.validator == nil {
		vc, err := utils.ValidatorConfigFromBridge(b.config)
		if err != nil {
			return nil, types.AsBridgeError(err, types.ErrConfigError)
		}
		b.validator = utils.NewValidator(vc)
	}
	if b.sched == nil {
		b.loop = session.NewLoop(b.logger)
		b.sched = b.loop
	}

	b.relay = newRelay(&b.feed)
	ctrl, err := session.New(session.Config{
		Bridge:    b.config,
		Adapter:   adapter,
		Scheduler: b.sched,
		Validator: b.validator,
		Logger:    b.logger,
		Metrics:   b.metrics,
		Emit:      b.relay.push,
	})
	if err != nil {
		return nil, err
	}
	b.ctrl = ctrl

	b.logger.Info("wallet bridge created", map[string]any{
		"version":   Version,
		"start_url": b.config.StartURL,
		"manifest":  b.config.Manifest.IsValid(),
		"metrics":   metrics.Enabled(b.metrics),
	})
	return b, nil
}

// Run drives the event loop until ctx is cancelled or Close is called. With a
// scheduler supplied through WithScheduler the caller drives it and Run only
// waits for ctx. Run returns once the loop has stopped; operations issued
// afterwards fail with NOT_RUNNING.
func (b *Bridge) Run(ctx context.Context) error {
	if b.loop == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	if b.config.EnableWebViewPreload {
		b.sched.Post(func() { _ = b.ctrl.Preload() })
	}
	b.running.Store(true)
	defer b.running.Store(false)
	return b.loop.Run(ctx)
}

// Subscribe delivers every host event to ch until the subscription is
// cancelled or the bridge closes. ch must be drained.
func (b *Bridge) Subscribe(ch chan<- types.Event) event.Subscription {
	return b.scope.Track(b.feed.Subscribe(ch))
}

func (b *Bridge) call(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCallTimeout)
	defer cancel()

	var res error
	run := func() { res = fn() }
	if b.loop != nil {
		if !b.running.Load() {
			return types.NewError(types.ErrNotRunning, "bridge loop is not running; call Run first")
		}
		if err := b.loop.Call(ctx, run); err != nil {
			return err
		}
		return res
	}

	done := make(chan struct{})
	b.sched.Post(func() {
		defer close(done)
		run()
	})
	select {
	case <-done:
		return res
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bridge) ConnectWallet() error    { return b.call(b.ctrl.ConnectWallet) }
func (b *Bridge) DisconnectWallet() error { return b.call(b.ctrl.DisconnectWallet) }
func (b *Bridge) GetBalance() error       { return b.call(b.ctrl.GetBalance) }
func (b *Bridge) GetWallets() error       { return b.call(b.ctrl.GetWallets) }
func (b *Bridge) GetNetworks() error      { return b.call(b.ctrl.GetNetworks) }
func (b *Bridge) OpenProfile() error      { return b.call(b.ctrl.OpenProfile) }
func (b *Bridge) GetJwtToken() error      { return b.call(b.ctrl.GetJwtToken) }
func (b *Bridge) Preload() error          { return b.call(b.ctrl.Preload) }

func (b *Bridge) SignMessage(message string) error {
	return b.call(func() error { return b.ctrl.SignMessage(message) })
}

// SendTransaction sends value to the recipient on the session chain. An empty
// network uses the session network.
func (b *Bridge) SendTransaction(to, value, data, network string) error {
	return b.call(func() error { return b.ctrl.SendTransaction(to, value, data, network) })
}

func (b *Bridge) SwitchWallet(walletID string) error {
	return b.call(func() error { return b.ctrl.SwitchWallet(walletID) })
}

func (b *Bridge) SwitchNetwork(networkChainID string) error {
	return b.call(func() error { return b.ctrl.SwitchNetwork(networkChainID) })
}

func (b *Bridge) Logout(reason string) error {
	return b.call(func() error { return b.ctrl.Logout(reason) })
}

// CheckConnectionStatus re-emits the connection state and reports it.
func (b *Bridge) CheckConnectionStatus() bool {
	var connected bool
	_ = b.call(func() error {
		connected = b.ctrl.CheckConnectionStatus()
		return nil
	})
	return connected
}

func (b *Bridge) Reset() {
	_ = b.call(func() error {
		b.ctrl.Reset()
		return nil
	})
}

// HandleDeepLink forwards an OAuth callback opened by the host app. It reports
// whether link was recognised as one.
func (b *Bridge) HandleDeepLink(link string) bool {
	var handled bool
	_ = b.call(func() error {
		handled = b.ctrl.HandleDeepLink(b.matcher, link)
		return nil
	})
	return handled
}

// Status is a point-in-time view of the bridge.
type Status struct {
	Session         session.Snapshot `json:"session"`
	Version         string           `json:"version"`
	ProtocolVersion int              `json:"protocolVersion"`
}

func (b *Bridge) Status() Status {
	st := Status{Version: Version, ProtocolVersion: ProtocolVersion}
	_ = b.call(func() error {
		st.Session = b.ctrl.State()
		return nil
	})
	return st
}

func (b *Bridge) IsConnected() bool {
	return b.Status().Session.Connected
}

// Config returns a copy of the effective configuration.
func (b *Bridge) Config() types.BridgeConfig {
	return *b.config
}

// Close shuts the adapter, stops the loop and ends every subscription.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.adapter.Close()
		switch {
		case b.loop != nil && b.running.Load():
			// the unavailable notification is queued ahead of the detach
			_ = b.call(func() error {
				b.ctrl.Detach()
				return nil
			})
			b.loop.Stop()
		case b.loop != nil:
			b.loop.Stop()
			b.ctrl.Detach()
		default:
			b.sched.Post(b.ctrl.Detach)
		}
		b.relay.close()
		b.scope.Close()
		if z, ok := b.logger.(interface{ Sync() error }); ok {
			_ = z.Sync()
		}
	})
	if errors.Is(err, transport.ErrUnavailable) {
		return nil
	}
	return err
}

// relay moves events off the scheduler so a slow subscriber never blocks it.
type relay struct {
	feed *event.FeedOf[types.Event]

	mu     sync.Mutex
	queue  []types.Event
	closed bool
	wake   chan struct{}
	exited chan struct{}
}

const relayFlushTimeout = time.Second

func newRelay(feed *event.FeedOf[types.Event]) *relay {
	r := &relay{
		feed:   feed,
		wake:   make(chan struct{}, 1),
		exited: make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *relay) push(ev types.Event) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, ev)
	r.mu.Unlock()
	r.signal()
}

func (r *relay) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *relay) run() {
	defer close(r.exited)
	for range r.wake {
		r.mu.Lock()
		batch, closed := r.queue, r.closed
		r.queue = nil
		r.mu.Unlock()

		for _, ev := range batch {
			r.feed.Send(ev)
		}
		if closed {
			return
		}
	}
}

// close delivers what is already queued, waiting at most relayFlushTimeout
// for subscribers to take it.
func (r *relay) close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	// wake is buffered; a pending wake already covers the final batch
	r.signal()
	select {
	case <-r.exited:
	case <-time.After(relayFlushTimeout):
	}
}

// Version information
const (
	Version         = "1.0.0"
	ProtocolVersion = 1
)

// GetVersion returns version information
func GetVersion() map[string]interface{} {
	chains := make([]string, 0, 7)
	for _, c := range []types.Chain{
		types.ChainSui, types.ChainEthereum, types.ChainPolygon, types.ChainBSC,
		types.ChainAvalanche, types.ChainBase, types.ChainSolana,
	} {
		chains = append(chains, c.String())
	}
	return map[string]interface{}{
		"library_version":  Version,
		"protocol_version": ProtocolVersion,
		"supported_chains": chains,
		"domains":          []string{string(types.DomainAuth), string(types.DomainWallet)},
	}
}
