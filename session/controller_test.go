package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/walletbridge/deeplink"
	"github.com/vitwit/walletbridge/parser"
	"github.com/vitwit/walletbridge/transport"
	"github.com/vitwit/walletbridge/types"
)

const (
	evmAddress = "0x1111111111111111111111111111111111111111"
	suiAddress = "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"
)

type harness struct {
	t      *testing.T
	sched  *Manual
	mock   *transport.Mock
	ctrl   *Controller
	events []types.Event
}

func newHarness(t *testing.T, configure ...func(*types.BridgeConfig)) *harness {
	t.Helper()
	cfg := types.DefaultConfig()
	for _, fn := range configure {
		fn(cfg)
	}

	h := &harness{t: t, sched: NewManual(), mock: transport.NewMock()}
	h.mock.AutoClose = true

	ctrl, err := New(Config{
		Bridge:    cfg,
		Adapter:   h.mock,
		Scheduler: h.sched,
		Emit:      func(ev types.Event) { h.events = append(h.events, ev) },
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

// run executes fn on the scheduler the way the facade does.
func (h *harness) run(fn func() error) error {
	var err error
	h.sched.Post(func() { err = fn() })
	return err
}

func (h *harness) ready() {
	h.mock.FireReady()
}

func (h *harness) state() Snapshot {
	var s Snapshot
	h.sched.Post(func() { s = h.ctrl.State() })
	return s
}

func (h *harness) kinds() []types.EventKind {
	out := make([]types.EventKind, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, ev.Kind())
	}
	return out
}

func (h *harness) errorCodes() []string {
	var out []string
	for _, ev := range h.events {
		if e, ok := ev.(types.Error); ok {
			out = append(out, e.Err.Code)
		}
	}
	return out
}

func (h *harness) lastAction() types.Action {
	h.t.Helper()
	req, err := parser.ParseRequest(h.mock.LastSent())
	require.NoError(h.t, err)
	return req.Action
}

func (h *harness) connect(address, chain string) {
	h.mock.Deliver(`{"type":"auth","action":"authSuccess","data":{"user":{"userId":"u1","email":"a@b.c"},` +
		`"primaryWallet":{"address":"` + address + `","chain":"` + chain + `","network":"mainnet","walletName":"Test"},"wallets":[]}}`)
	h.events = nil
}

func findEvent[E types.Event](events []types.Event) (E, bool) {
	for _, ev := range events {
		if e, ok := ev.(E); ok {
			return e, true
		}
	}
	var zero E
	return zero, false
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{Bridge: types.DefaultConfig()})
	assert.Error(t, err)
}

func TestWalletConnectedHidesOnce(t *testing.T) {
	h := newHarness(t)
	h.ready()

	require.NoError(t, h.run(h.ctrl.ConnectWallet))
	require.Equal(t, 1, h.mock.SentCount())
	assert.Equal(t, types.ActionConnectWallet, h.lastAction())
	assert.Equal(t, []string{types.DefaultStartURL}, h.mock.Loaded)

	h.mock.Deliver(`{"type":"wallet","action":"walletConnected","data":{"wallet":{"address":"` + evmAddress +
		`","chain":"ethereum","walletName":"MetaMask"},"success":true}}`)

	assert.Equal(t, 1, h.mock.HideCount())
	s := h.state()
	assert.True(t, s.Connected)
	assert.Equal(t, evmAddress, s.Address)
	assert.Equal(t, "ethereum", s.Chain)
	require.NotNil(t, s.Wallet)
	assert.Equal(t, "ETH", s.Wallet.Symbol)
	assert.False(t, s.Processing)

	assert.Contains(t, h.kinds(), types.EventWalletInfoUpdated)
	assert.Contains(t, h.kinds(), types.EventConnectionStatusChanged)
	connected, ok := findEvent[types.WalletConnected](h.events)
	require.True(t, ok)
	assert.Equal(t, evmAddress, connected.Address)
}

func TestLegacyConnectedMessage(t *testing.T) {
	h := newHarness(t)
	h.mock.Deliver("uniwebview://connected?address=" + suiAddress)

	s := h.state()
	assert.True(t, s.Connected)
	assert.Equal(t, "sui", s.Chain)
	assert.Equal(t, parser.LegacyWalletName, s.Wallet.WalletName)
	assert.Equal(t, "SUI", s.Wallet.Symbol)
}

func TestAuthSuccessWithoutDataReportsNullData(t *testing.T) {
	h := newHarness(t)
	h.mock.Deliver(`{"type":"auth","action":"authSuccess","data":null}`)

	assert.Equal(t, []string{types.ErrNullData}, h.errorCodes())
	assert.Equal(t, 1, h.mock.HideCount())
	assert.False(t, h.state().Connected)
}

func TestAuthSuccessEmitsUser(t *testing.T) {
	h := newHarness(t)
	h.mock.Deliver(`{"type":"auth","action":"authSuccess","data":{"user":{"userId":"u1","email":"a@b.c"},` +
		`"primaryWallet":{"address":"` + suiAddress + `","chain":"sui"}}}`)

	user, ok := findEvent[types.UserAuthenticated](h.events)
	require.True(t, ok)
	assert.Equal(t, "u1", user.User.UserID)
	s := h.state()
	require.NotNil(t, s.User)
	assert.Equal(t, "a@b.c", s.User.Email)
	assert.True(t, s.Connected)
}

func TestHandleAuthenticatedUserUsesFirstWallet(t *testing.T) {
	h := newHarness(t)
	h.mock.Deliver(`{"type":"auth","action":"handleAuthenticatedUser","data":{"user":{"userId":"u2"},` +
		`"wallets":[{"address":"` + evmAddress + `","chain":"polygon"},{"address":"` + suiAddress + `","chain":"sui"}]}}`)

	s := h.state()
	assert.Equal(t, evmAddress, s.Address)
	assert.Equal(t, "MATIC", s.Wallet.Symbol)
}

func TestWalletConnectedFailureReleasesPanel(t *testing.T) {
	h := newHarness(t)
	h.ready()
	require.NoError(t, h.run(h.ctrl.ConnectWallet))

	h.mock.Deliver(`{"type":"wallet","action":"walletConnected","data":{"wallet":{"address":"` + evmAddress + `"},"success":false}}`)

	assert.Equal(t, []string{types.ErrProtocol}, h.errorCodes())
	assert.Equal(t, 1, h.mock.HideCount())
	assert.False(t, h.state().Processing)
}

func TestConnectWhenAlreadyConnected(t *testing.T) {
	h := newHarness(t)
	h.connect(suiAddress, "sui")

	err := h.run(h.ctrl.ConnectWallet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrAlreadyConnected))
	assert.Equal(t, []string{types.ErrAlreadyConnectedCode}, h.errorCodes())
	assert.Equal(t, 0, h.mock.SentCount())
}

func TestPreconditionsRequireConnection(t *testing.T) {
	h := newHarness(t)
	h.ready()

	ops := map[string]func() error{
		"sign":        func() error { return h.ctrl.SignMessage("hello") },
		"transaction": func() error { return h.ctrl.SendTransaction(suiAddress, "1", "", "") },
		"profile":     h.ctrl.OpenProfile,
		"logout":      func() error { return h.ctrl.Logout("") },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := h.run(op)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrNotConnected))
		})
	}
	assert.Equal(t, 0, h.mock.SentCount())
	assert.Len(t, h.errorCodes(), len(ops))

	err := h.run(h.ctrl.DisconnectWallet)
	assert.True(t, errors.Is(err, types.ErrNotConnected))
}

func TestSendTransactionValidation(t *testing.T) {
	h := newHarness(t)
	h.ready()
	h.connect(suiAddress, "sui")

	cases := []struct {
		name  string
		to    string
		value string
	}{
		{"short address", "0x1234", "1"},
		{"evm address on sui", evmAddress, "1"},
		{"negative amount", suiAddress, "-1"},
		{"zero amount", suiAddress, "0"},
		{"not a number", suiAddress, "abc"},
		{"above bound", suiAddress, "100001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := h.run(func() error { return h.ctrl.SendTransaction(tc.to, tc.value, "", "") })
			require.Error(t, err)
			assert.Equal(t, types.ErrValidation, types.AsBridgeError(err, "").Code)
		})
	}
	assert.Equal(t, 0, h.mock.SentCount())

	require.NoError(t, h.run(func() error { return h.ctrl.SendTransaction(" "+suiAddress+" ", "1.5", "", "") }))
	req, err := parser.ParseRequest(h.mock.LastSent())
	require.NoError(t, err)
	assert.Equal(t, types.ActionTransaction, req.Action)
	assert.Contains(t, string(req.Data), `"to":"`+suiAddress+`"`)
	assert.Contains(t, string(req.Data), `"network":"mainnet"`)
	assert.Contains(t, string(req.Data), `"type":"send"`)
}

func TestDisconnectIsOptimistic(t *testing.T) {
	h := newHarness(t)
	h.ready()
	h.connect(evmAddress, "ethereum")

	require.NoError(t, h.run(h.ctrl.DisconnectWallet))
	assert.Equal(t, types.ActionDisconnect, h.lastAction())

	s := h.state()
	assert.False(t, s.Connected)
	assert.Empty(t, s.Address)
	assert.Nil(t, s.Wallet)
	assert.Contains(t, h.kinds(), types.EventWalletDisconnected)
	assert.True(t, s.Processing, "panel stays open until the frontend closes it")
}

func TestBalanceSymbolRemap(t *testing.T) {
	cases := []struct {
		chain, symbol, want string
	}{
		{"ethereum", "USDC", "ETH"},
		{"polygon", "", "MATIC"},
		{"aptos", "", types.FallbackSymbol},
		{"aptos", "APT", "APT"},
	}
	for _, tc := range cases {
		t.Run(tc.chain+"/"+tc.symbol, func(t *testing.T) {
			h := newHarness(t)
			h.connect(evmAddress, "ethereum")

			h.mock.Deliver(`{"type":"wallet","action":"balanceResponse","data":{"walletAddress":"` + evmAddress +
				`","chain":"` + tc.chain + `","balance":1.25,"symbol":"` + tc.symbol + `","decimals":18,"success":true}}`)

			ev, ok := findEvent[types.BalanceUpdated](h.events)
			require.True(t, ok)
			assert.Equal(t, tc.want, ev.Balance.Symbol)
			assert.Equal(t, types.NumString("1.25"), ev.Balance.Balance)
			assert.Equal(t, tc.want, h.state().Wallet.Symbol)
		})
	}
}

func TestBalanceFailure(t *testing.T) {
	h := newHarness(t)
	h.mock.Deliver(`{"type":"wallet","action":"balanceResponse","data":{"success":false,"error":"rpc down"}}`)

	require.Equal(t, []string{types.ErrProtocol}, h.errorCodes())
	e, _ := findEvent[types.Error](h.events)
	assert.Contains(t, e.Err.Message, "rpc down")
	assert.Equal(t, 1, h.mock.HideCount())
}

func TestGetBalanceUsesSession(t *testing.T) {
	h := newHarness(t)
	h.ready()
	h.connect(evmAddress, "base")

	require.NoError(t, h.run(h.ctrl.GetBalance))
	req, err := parser.ParseRequest(h.mock.LastSent())
	require.NoError(t, err)
	assert.JSONEq(t, `{"walletAddress":"`+evmAddress+`","chain":"base","tokenAddress":"","network":"mainnet"}`, string(req.Data))
}

func TestQueueRunsOneOperationAtATime(t *testing.T) {
	h := newHarness(t)
	h.ready()

	require.NoError(t, h.run(h.ctrl.GetWallets))
	require.NoError(t, h.run(h.ctrl.GetNetworks))
	require.NoError(t, h.run(h.ctrl.GetJwtToken))

	assert.Equal(t, 1, h.mock.SentCount())
	s := h.state()
	assert.True(t, s.Processing)
	assert.Equal(t, "get wallets", s.Current)
	assert.Equal(t, 2, s.QueueLength)

	h.mock.FireClosed()
	h.sched.Advance(499 * time.Millisecond)
	assert.Equal(t, 1, h.mock.SentCount())
	h.sched.Advance(time.Millisecond)
	assert.Equal(t, 2, h.mock.SentCount())
	assert.Equal(t, types.ActionGetNetworks, h.lastAction())

	h.mock.Deliver(`{"type":"wallet","action":"networksResponse","data":{"networks":[{"chainId":"1","name":"Ethereum"}],"success":true}}`)
	networks, ok := findEvent[types.NetworksReceived](h.events)
	require.True(t, ok)
	assert.Len(t, networks.Networks, 1)

	h.sched.Advance(500 * time.Millisecond)
	assert.Equal(t, 3, h.mock.SentCount())
	assert.Equal(t, types.ActionGetJwtToken, h.lastAction())
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.ready()

	require.NoError(t, h.run(h.ctrl.GetWallets))
	require.NoError(t, h.run(h.ctrl.GetNetworks))

	h.mock.FireClosed()
	h.mock.FireClosed()
	h.mock.FireClosed()
	assert.Equal(t, 1, h.sched.PendingTimers(), "only one advance is armed")

	h.sched.Advance(time.Second)
	assert.Equal(t, 2, h.mock.SentCount())
	assert.True(t, h.state().Processing)
}

func TestRetryWaitsForReady(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(h.ctrl.GetWallets))
	assert.Equal(t, 0, h.mock.SentCount())
	assert.Equal(t, 1, h.mock.Opens)

	h.sched.Advance(300 * time.Millisecond)
	h.ready()
	assert.Equal(t, 1, h.mock.SentCount(), "ready resumes the waiting operation")
	assert.Contains(t, h.kinds(), types.EventWebViewReady)

	h.sched.Advance(time.Second)
	assert.Equal(t, 1, h.mock.SentCount())
	assert.Empty(t, h.errorCodes())
}

func TestNotReadyAfterRetries(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(h.ctrl.GetWallets))
	h.sched.Advance(time.Second)

	assert.Equal(t, []string{types.ErrTransportNotReady}, h.errorCodes())
	assert.Equal(t, 1, h.mock.HideCount())
	assert.False(t, h.state().Processing)
}

func TestOperationTimeout(t *testing.T) {
	h := newHarness(t, func(cfg *types.BridgeConfig) {
		cfg.OperationTimeout = types.Duration(10 * time.Second)
	})
	h.ready()

	require.NoError(t, h.run(h.ctrl.GetWallets))
	h.sched.Advance(10 * time.Second)

	assert.Equal(t, []string{types.ErrTimeout}, h.errorCodes())
	assert.Equal(t, 1, h.mock.HideCount())
	assert.False(t, h.state().Processing)
}

func TestUnavailableDiscardsQueue(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(h.ctrl.GetWallets))
	require.NoError(t, h.run(h.ctrl.GetNetworks))
	require.NoError(t, h.mock.Close())

	assert.Equal(t, []string{types.ErrQueueDiscarded, types.ErrQueueDiscarded}, h.errorCodes())
	s := h.state()
	assert.False(t, s.Available)
	assert.False(t, s.Processing)
	assert.Zero(t, s.QueueLength)
	assert.Zero(t, h.sched.PendingTimers())

	err := h.run(h.ctrl.GetWallets)
	assert.Equal(t, types.ErrTransportUnavailable, types.AsBridgeError(err, "").Code)
}

func TestSwitchNetworkRefreshes(t *testing.T) {
	h := newHarness(t)
	h.ready()
	h.connect(evmAddress, "ethereum")

	require.NoError(t, h.run(func() error { return h.ctrl.SwitchNetwork("137") }))
	assert.Equal(t, types.ActionSwitchNetwork, h.lastAction())

	h.mock.Deliver(`{"type":"wallet","action":"switchNetwork","data":{"walletAddress":"` + evmAddress +
		`","chain":"polygon","network":"mainnet","balance":"3","success":true}}`)

	switched, ok := findEvent[types.NetworkSwitched](h.events)
	require.True(t, ok)
	assert.Equal(t, "MATIC", switched.Balance.Symbol)
	assert.Equal(t, "polygon", h.state().Chain)

	h.sched.Advance(500 * time.Millisecond)
	assert.Equal(t, types.ActionGetNetworks, h.lastAction())
	h.mock.FireClosed()
	h.sched.Advance(500 * time.Millisecond)
	assert.Equal(t, types.ActionGetBalance, h.lastAction())
}

func TestSwitchWithoutRefresh(t *testing.T) {
	h := newHarness(t, func(cfg *types.BridgeConfig) { cfg.RefreshOnSwitch = false })
	h.ready()

	require.NoError(t, h.run(func() error { return h.ctrl.SwitchWallet("w-2") }))
	h.mock.Deliver(`{"type":"wallet","action":"switchWallet","data":{"walletAddress":"` + suiAddress +
		`","chain":"sui","success":true}}`)

	_, ok := findEvent[types.WalletSwitched](h.events)
	assert.True(t, ok)
	assert.Equal(t, suiAddress, h.state().Address)
	h.sched.Advance(time.Second)
	assert.Equal(t, 1, h.mock.SentCount())
}

func TestSwitchRejectsEmptyID(t *testing.T) {
	h := newHarness(t)
	err := h.run(func() error { return h.ctrl.SwitchWallet("  ") })
	assert.Equal(t, types.ErrValidation, types.AsBridgeError(err, "").Code)
}

func TestWalletErrorKeepsPanelOpen(t *testing.T) {
	h := newHarness(t)
	h.connect(evmAddress, "ethereum")

	h.mock.Deliver(`{"type":"wallet","action":"walletError","data":{"error":"rejected","errorCode":"USER_REJECTED"}}`)
	assert.Equal(t, []string{types.ErrProtocol}, h.errorCodes())
	assert.True(t, h.state().Connected)
	assert.Equal(t, 1, h.mock.HideCount(), "only the earlier authSuccess hid the panel")

	h.mock.Deliver(`{"type":"wallet","action":"walletError","data":{"error":"expired","errorCode":"SESSION_EXPIRED"}}`)
	assert.False(t, h.state().Connected)
	assert.Contains(t, h.kinds(), types.EventWalletDisconnected)
}

func TestLoggedOutClearsSession(t *testing.T) {
	h := newHarness(t)
	h.connect(evmAddress, "ethereum")

	h.mock.Deliver(`{"type":"auth","action":"loggedOut","data":{"success":true}}`)
	assert.False(t, h.state().Connected)
	assert.Equal(t, []types.EventKind{
		types.EventConnectionStatusChanged,
		types.EventWalletDisconnected,
		types.EventWebViewClosed,
	}, h.kinds())
}

func TestTransactionAndSignatureEvents(t *testing.T) {
	h := newHarness(t)
	h.connect(suiAddress, "sui")

	h.mock.Deliver(`{"type":"wallet","action":"transactionResponse","data":{"transactionHash":"0xabc","success":true,"gasUsed":21000}}`)
	tx, ok := findEvent[types.TransactionSent](h.events)
	require.True(t, ok)
	assert.Equal(t, "0xabc", tx.Hash)

	h.mock.Deliver(`{"type":"wallet","action":"signMessageResponse","data":{"signature":"0xsig","message":"hi","success":true}}`)
	signed, ok := findEvent[types.MessageSigned](h.events)
	require.True(t, ok)
	assert.Equal(t, "0xsig", signed.Signature)
	assert.False(t, signed.Verified)
}

func TestJwtTokenReceived(t *testing.T) {
	h := newHarness(t)
	h.mock.Deliver(`{"type":"auth","action":"jwtTokenResponse","data":{"token":"jwt","userId":"u1","email":"a@b.c"}}`)

	ev, ok := findEvent[types.JwtTokenReceived](h.events)
	require.True(t, ok)
	assert.Equal(t, "jwt", ev.Token)
}

func TestCheckConnectionStatus(t *testing.T) {
	h := newHarness(t)
	var connected bool
	h.sched.Post(func() { connected = h.ctrl.CheckConnectionStatus() })
	assert.False(t, connected)

	h.connect(evmAddress, "ethereum")
	h.sched.Post(func() { connected = h.ctrl.CheckConnectionStatus() })
	assert.True(t, connected)
	assert.Equal(t, []types.EventKind{types.EventConnectionStatusChanged, types.EventWalletConnected}, h.kinds())
}

func TestPreloadLoadsOnce(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(h.ctrl.Preload))
	require.NoError(t, h.run(h.ctrl.Preload))
	assert.Len(t, h.mock.Loaded, 1)
	assert.Zero(t, h.mock.Opens)

	require.NoError(t, h.run(h.ctrl.GetWallets))
	assert.Len(t, h.mock.Loaded, 1, "a preloaded panel is not reloaded")
}

func TestResetDropsEverything(t *testing.T) {
	h := newHarness(t)
	h.connect(evmAddress, "ethereum")
	require.NoError(t, h.run(h.ctrl.GetWallets))
	require.NoError(t, h.run(h.ctrl.GetNetworks))

	h.sched.Post(h.ctrl.Reset)
	s := h.state()
	assert.False(t, s.Connected)
	assert.False(t, s.Processing)
	assert.Zero(t, s.QueueLength)
	assert.Zero(t, h.sched.PendingTimers())
}

func TestUnsubscribedAfterDetach(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Detach()
	h.mock.Deliver(`{"type":"auth","action":"authSuccess","data":null}`)
	assert.Empty(t, h.events)
}

func TestHandleDeepLink(t *testing.T) {
	matcher := deeplink.NewMatcher()

	t.Run("not a callback", func(t *testing.T) {
		h := newHarness(t)
		var handled bool
		h.sched.Post(func() { handled = h.ctrl.HandleDeepLink(matcher, "https://example.com/") })
		assert.False(t, handled)
	})

	t.Run("authorization code reloads the panel", func(t *testing.T) {
		h := newHarness(t)
		var handled bool
		h.sched.Post(func() {
			handled = h.ctrl.HandleDeepLink(matcher, "dynamicunity://auth/callback?code=abc&state=xyz")
		})
		require.True(t, handled)
		require.Len(t, h.mock.Loaded, 1)
		assert.Contains(t, h.mock.Loaded[0], deeplink.ParamOAuthCode+"=abc")
		assert.Contains(t, h.mock.Loaded[0], deeplink.ParamOAuthState+"=xyz")
		assert.False(t, h.state().WebviewReady)
	})

	t.Run("token is forwarded", func(t *testing.T) {
		h := newHarness(t)
		h.ready()
		h.sched.Post(func() {
			h.ctrl.HandleDeepLink(matcher, "dynamicunity://oauth/callback#access_token=tok&token_type=Bearer&expires_in=3600&state=s")
		})
		require.Equal(t, 1, h.mock.SentCount())
		assert.Contains(t, h.mock.LastSent(), `"access_token":"tok"`)
	})

	t.Run("error is forwarded and reported", func(t *testing.T) {
		h := newHarness(t)
		h.ready()
		h.sched.Post(func() {
			h.ctrl.HandleDeepLink(matcher, "dynamicunity://auth?error=access_denied")
		})
		assert.True(t, strings.Contains(h.mock.LastSent(), `"error":"access_denied"`))
		assert.Equal(t, []string{types.ErrProtocol}, h.errorCodes())
	})

	t.Run("direct send retries once", func(t *testing.T) {
		h := newHarness(t)
		h.sched.Post(func() {
			h.ctrl.HandleDeepLink(matcher, "dynamicunity://auth#access_token=tok")
		})
		assert.Zero(t, h.mock.SentCount())
		h.mock.Ready = true
		h.sched.Advance(time.Second)
		assert.Equal(t, 1, h.mock.SentCount())
	})

	t.Run("detach cancels pending direct resend", func(t *testing.T) {
		h := newHarness(t)
		h.sched.Post(func() {
			h.ctrl.HandleDeepLink(matcher, "dynamicunity://auth#access_token=tok")
		})
		require.Equal(t, 1, h.sched.PendingTimers())
		h.sched.Post(h.ctrl.Detach)
		assert.Zero(t, h.sched.PendingTimers())
		h.mock.Ready = true
		h.sched.Advance(time.Second)
		assert.Zero(t, h.mock.SentCount())
	})
}
