package session

import (
	"strings"

	"github.com/vitwit/walletbridge/deeplink"
	"github.com/vitwit/walletbridge/types"
)

// Every operation either enqueues its request or fails immediately. Immediate
// failures are returned and also emitted as an Error event.

func (c *Controller) reject(err *types.BridgeError) error {
	c.emit(types.Error{Err: err})
	return err
}

func (c *Controller) requireConnected(op string) error {
	if !c.connected || c.address == "" {
		return c.reject(types.NewError(types.ErrNotConnectedCode, "%s: wallet not connected", op))
	}
	return nil
}

func (c *Controller) requireAvailable(op string) error {
	if !c.available {
		return c.reject(types.NewError(types.ErrTransportUnavailable, "%s: transport unavailable", op))
	}
	return nil
}

func (c *Controller) ConnectWallet() error {
	if c.connected {
		return c.reject(types.NewError(types.ErrAlreadyConnectedCode, "connect wallet: already connected to %s", types.ShortenAddress(c.address)))
	}
	return c.enqueue(&operation{
		name:   "connect wallet",
		action: types.ActionConnectWallet,
		build:  c.builder.ConnectWallet,
	})
}

// DisconnectWallet clears the session as soon as the request is sent, without
// waiting for the frontend to acknowledge.
func (c *Controller) DisconnectWallet() error {
	if c.address == "" {
		return c.reject(types.NewError(types.ErrNotConnectedCode, "disconnect: no wallet address"))
	}
	return c.enqueue(&operation{
		name:   "disconnect",
		action: types.ActionDisconnect,
		build:  c.builder.Disconnect,
		afterSend: func() {
			c.clearSession()
			c.emit(types.WalletDisconnected{})
		},
	})
}

func (c *Controller) SignMessage(message string) error {
	if err := c.requireConnected("sign message"); err != nil {
		return err
	}
	if err := c.validator.ValidateMessage(message); err != nil {
		return c.reject(types.AsBridgeError(err, types.ErrValidation))
	}
	address := c.address
	return c.enqueue(&operation{
		name:   "sign message",
		action: types.ActionSignMessage,
		build: func() (string, error) {
			return c.builder.SignMessage(address, message)
		},
	})
}

// SendTransaction validates the recipient against the session chain.
// An empty network uses the session network.
func (c *Controller) SendTransaction(to, value, data, network string) error {
	if err := c.requireConnected("send transaction"); err != nil {
		return err
	}
	to, value = strings.TrimSpace(to), strings.TrimSpace(value)
	chain := c.sessionChain()
	if err := c.validator.ValidateChain(chain); err != nil {
		return c.reject(types.AsBridgeError(err, types.ErrValidation))
	}
	if err := c.validator.ValidateAddress(chain, to); err != nil {
		return c.reject(types.AsBridgeError(err, types.ErrValidation))
	}
	if _, err := c.validator.ValidateAmount(value); err != nil {
		return c.reject(types.AsBridgeError(err, types.ErrValidation))
	}
	if network == "" {
		network = c.sessionNetwork()
	}
	address := c.address
	return c.enqueue(&operation{
		name:   "send transaction",
		action: types.ActionTransaction,
		build: func() (string, error) {
			return c.builder.Transaction(address, to, value, data, chain, network)
		},
	})
}

func (c *Controller) GetBalance() error {
	if err := c.requireAvailable("get balance"); err != nil {
		return err
	}
	return c.enqueue(c.balanceOp())
}

func (c *Controller) balanceOp() *operation {
	return &operation{
		name:   "get balance",
		action: types.ActionGetBalance,
		build: func() (string, error) {
			return c.builder.GetBalance(c.address, c.sessionChain(), "", c.sessionNetwork())
		},
	}
}

func (c *Controller) GetWallets() error {
	if err := c.requireAvailable("get wallets"); err != nil {
		return err
	}
	return c.enqueue(&operation{
		name:   "get wallets",
		action: types.ActionGetWallets,
		build:  c.builder.GetWallets,
	})
}

func (c *Controller) GetNetworks() error {
	if err := c.requireAvailable("get networks"); err != nil {
		return err
	}
	return c.enqueue(c.networksOp())
}

func (c *Controller) networksOp() *operation {
	return &operation{
		name:   "get networks",
		action: types.ActionGetNetworks,
		build:  c.builder.GetNetworks,
	}
}

func (c *Controller) SwitchWallet(walletID string) error {
	if err := c.requireAvailable("switch wallet"); err != nil {
		return err
	}
	if strings.TrimSpace(walletID) == "" {
		return c.reject(types.NewError(types.ErrValidation, "switch wallet: wallet id cannot be empty"))
	}
	return c.enqueue(&operation{
		name:   "switch wallet",
		action: types.ActionSwitchWallet,
		build: func() (string, error) {
			return c.builder.SwitchWallet(walletID)
		},
	})
}

func (c *Controller) SwitchNetwork(networkChainID string) error {
	if err := c.requireAvailable("switch network"); err != nil {
		return err
	}
	if strings.TrimSpace(networkChainID) == "" {
		return c.reject(types.NewError(types.ErrValidation, "switch network: chain id cannot be empty"))
	}
	return c.enqueue(&operation{
		name:   "switch network",
		action: types.ActionSwitchNetwork,
		build: func() (string, error) {
			return c.builder.SwitchNetwork(networkChainID)
		},
	})
}

func (c *Controller) OpenProfile() error {
	if err := c.requireConnected("open profile"); err != nil {
		return err
	}
	address := c.address
	return c.enqueue(&operation{
		name:   "open profile",
		action: types.ActionOpenProfile,
		build: func() (string, error) {
			return c.builder.OpenProfile(address)
		},
	})
}

// GetJwtToken does not require a connected wallet.
func (c *Controller) GetJwtToken() error {
	if err := c.requireAvailable("get jwt token"); err != nil {
		return err
	}
	return c.enqueue(&operation{
		name:   "get jwt token",
		action: types.ActionGetJwtToken,
		build:  c.builder.GetJwtToken,
	})
}

func (c *Controller) Logout(reason string) error {
	if err := c.requireConnected("logout"); err != nil {
		return err
	}
	return c.enqueue(&operation{
		name:   "logout",
		action: types.ActionLogout,
		build: func() (string, error) {
			return c.builder.Logout(reason)
		},
	})
}

// CheckConnectionStatus re-announces the current connection state.
func (c *Controller) CheckConnectionStatus() bool {
	c.emit(types.ConnectionStatusChanged{Connected: c.connected})
	if c.connected && c.address != "" {
		c.emit(types.WalletConnected{Address: c.address})
	}
	return c.connected
}

// Preload loads the panel without showing it, when preloading is enabled.
func (c *Controller) Preload() error {
	if err := c.requireAvailable("preload"); err != nil {
		return err
	}
	if !c.cfg.EnableWebViewPreload || c.loaded {
		return nil
	}
	if err := c.adapter.Load(c.cfg.PanelURL()); err != nil {
		return c.reject(types.NewError(types.ErrTransportUnavailable, "preload: %v", err))
	}
	c.loaded = true
	return nil
}

// Reset drops the session and every pending operation and hides the panel.
func (c *Controller) Reset() {
	wasProcessing := c.processing
	c.pending = nil
	c.current = nil
	c.processing = false
	c.cancelTimers()
	c.clearSession()
	if wasProcessing {
		if err := c.adapter.Hide(); err != nil {
			c.log.Warn("hide failed", map[string]any{"error": err.Error()})
		}
	}
	c.log.Info("session reset", nil)
}

// HandleDeepLink forwards an OAuth callback URL to the frontend. It reports
// whether url was an OAuth callback.
func (c *Controller) HandleDeepLink(matcher *deeplink.Matcher, url string) bool {
	cb, ok := matcher.Parse(url)
	if !ok {
		return false
	}

	switch cb.Kind() {
	case deeplink.KindCode:
		target, err := deeplink.CallbackURL(c.cfg.PanelURL(), cb.Code, cb.State)
		if err != nil {
			c.emitError(types.NewError(types.ErrProtocol, "oauth callback: %v", err), "")
			return true
		}
		if err := c.adapter.Open(); err != nil {
			c.emitError(types.NewError(types.ErrTransportUnavailable, "oauth callback: %v", err), "")
			return true
		}
		if err := c.adapter.Load(target); err != nil {
			c.emitError(types.NewError(types.ErrTransportUnavailable, "oauth callback: %v", err), "")
			return true
		}
		c.loaded = true
		c.webviewReady = false

	case deeplink.KindToken:
		payload, err := c.builder.OAuthAccessToken(cb.AccessToken, cb.TokenType, cb.ExpiresIn, cb.State)
		if err == nil {
			c.sendDirect("oauth access token", payload)
		}

	case deeplink.KindError:
		payload, err := c.builder.OAuthError(cb.Error, cb.ErrorDescription)
		if err == nil {
			c.sendDirect("oauth error", payload)
		}
		desc := cb.ErrorDescription
		if desc == "" {
			desc = types.DefaultOAuthErrorMessage
		}
		c.emitError(types.NewError(types.ErrProtocol, "%s: %s", cb.Error, desc), "")

	default:
		c.log.Debug("deep link without oauth parameters", map[string]any{"url": url})
	}
	return true
}

// sendDirect bypasses the queue; OAuth results belong to the operation already in flight.
func (c *Controller) sendDirect(name, payload string) {
	err := c.adapter.Send(payload)
	if err == nil {
		return
	}
	c.log.Debug("direct send failed, retrying", map[string]any{"message": name, "error": err.Error()})
	if c.directCancel != nil {
		c.directCancel()
	}
	c.directCancel = c.sched.After(c.cfg.RetryDelay.Std(), func() {
		c.directCancel = nil
		if err := c.adapter.Send(payload); err != nil {
			c.emitError(types.NewError(types.ErrTransportNotReady, "%s: %v", name, err), "")
		}
	})
}
