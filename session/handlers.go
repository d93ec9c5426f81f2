package session

import (
	"github.com/vitwit/walletbridge/router"
	"github.com/vitwit/walletbridge/types"
	"github.com/vitwit/walletbridge/utils"
)

func (c *Controller) subscribe() {
	r := c.router
	c.unsubscribe = append(c.unsubscribe,
		router.On(r, types.DomainAuth, types.ActionAuthSuccess, c.handleAuthSuccess),
		router.On(r, types.DomainAuth, types.ActionAuthFailed, c.handleAuthFailed),
		router.On(r, types.DomainAuth, types.ActionLoggedOut, c.handleLoggedOut),
		router.On(r, types.DomainAuth, types.ActionHandleAuthenticatedUser, c.handleAuthenticatedUser),
		router.On(r, types.DomainAuth, types.ActionJwtTokenResponse, c.handleJwtToken),

		router.On(r, types.DomainWallet, types.ActionBalanceResponse, c.handleBalance),
		router.On(r, types.DomainWallet, types.ActionSwitchWallet, c.handleBalance),
		router.On(r, types.DomainWallet, types.ActionSwitchNetwork, c.handleBalance),
		router.On(r, types.DomainWallet, types.ActionSignMessageResponse, c.handleSignMessage),
		router.On(r, types.DomainWallet, types.ActionTransactionResponse, c.handleTransaction),
		router.On(r, types.DomainWallet, types.ActionWalletConnected, c.handleWalletConnected),
		router.On(r, types.DomainWallet, types.ActionWalletDisconnected, c.handleWalletDisconnected),
		router.On(r, types.DomainWallet, types.ActionWalletError, c.handleWalletError),
		router.On(r, types.DomainWallet, types.ActionWalletsResponse, c.handleWallets),
		router.On(r, types.DomainWallet, types.ActionNetworksResponse, c.handleNetworks),
	)
}

// nullData reports a reply without a body and releases the panel.
func (c *Controller) nullData(what string) {
	c.emitError(types.NewError(types.ErrNullData, "Failed to %s: Invalid response", what), "")
	c.hide()
}

func (c *Controller) protocolError(what, message, code string) {
	if message == "" {
		message = "unknown error"
	}
	c.emit(types.Error{Err: &types.BridgeError{
		Code:    types.ErrProtocol,
		Message: what + ": " + message,
		Data:    code,
	}})
}

func (c *Controller) connectWith(wallet *types.WalletCredential, user *types.UserInfo) {
	if wallet != nil {
		c.setWallet(*wallet)
	}
	if user != nil {
		u := *user
		c.user = &u
	}
	if c.address != "" {
		c.setConnected(true)
		c.emit(types.WalletConnected{Address: c.address})
	}
	if user != nil {
		c.emit(types.UserAuthenticated{User: *user})
	}
}

func (c *Controller) handleAuthSuccess(m *types.AuthSuccessMessage) {
	if m.Data == nil {
		c.nullData("authenticate")
		return
	}
	wallet := m.Data.PrimaryWallet
	if wallet == nil && len(m.Data.Wallets) > 0 {
		wallet = &m.Data.Wallets[0]
	}
	c.log.Info("authenticated", map[string]any{"provider": m.Data.Provider, "method": m.Data.AuthMethod})
	c.connectWith(wallet, m.Data.User)
	c.hide()
}

func (c *Controller) handleAuthenticatedUser(m *types.HandleAuthenticatedUserMessage) {
	if m.Data == nil {
		c.nullData("restore session")
		return
	}
	var wallet *types.WalletCredential
	if len(m.Data.Wallets) > 0 {
		wallet = &m.Data.Wallets[0]
	}
	c.connectWith(wallet, m.Data.User)
	c.hide()
}

func (c *Controller) handleAuthFailed(m *types.AuthFailedMessage) {
	if m.Data == nil {
		c.nullData("authenticate")
		return
	}
	c.protocolError("Authentication failed", m.Data.Error, m.Data.ErrorCode)
	c.hide()
}

func (c *Controller) handleWalletConnected(m *types.WalletConnectedMessage) {
	if m.Data == nil || m.Data.Wallet == nil {
		c.nullData("connect wallet")
		return
	}
	if !m.Data.Success {
		c.protocolError("Failed to connect wallet", "frontend reported failure", "")
		c.hide()
		return
	}
	c.connectWith(m.Data.Wallet, nil)
	c.hide()
}

func (c *Controller) handleLoggedOut(m *types.LoggedOutMessage) {
	if m.Data == nil {
		c.nullData("log out")
		return
	}
	c.clearSession()
	c.emit(types.WalletDisconnected{})
	c.hide()
}

func (c *Controller) handleWalletDisconnected(m *types.WalletDisconnectedMessage) {
	if m.Data == nil {
		c.nullData("disconnect")
		return
	}
	c.clearSession()
	c.emit(types.WalletDisconnected{})
	c.hide()
}

func (c *Controller) handleJwtToken(m *types.JwtTokenResponseMessage) {
	if m.Data == nil {
		c.nullData("get JWT token")
		return
	}
	if m.Data.Token == "" {
		c.protocolError("Failed to get JWT token", "empty token", "")
	} else {
		c.emit(types.JwtTokenReceived{Token: m.Data.Token, UserID: m.Data.UserID, Email: m.Data.Email})
	}
	c.hide()
}

// handleBalance serves balanceResponse and the switchWallet/switchNetwork acks.
func (c *Controller) handleBalance(m *types.BalanceResponseMessage) {
	what := map[types.Action]string{
		types.ActionBalanceResponse: "get balance",
		types.ActionSwitchWallet:    "switch wallet",
		types.ActionSwitchNetwork:   "switch network",
	}[m.Action]

	if m.Data == nil {
		c.nullData(what)
		return
	}
	if !m.Data.Success {
		c.protocolError("Failed to "+what, m.Data.Error, "")
		c.hide()
		return
	}

	data := *m.Data
	data.Symbol = types.DisplaySymbol(data.Chain, data.Symbol)
	c.applyBalance(data)

	switch m.Action {
	case types.ActionSwitchWallet:
		c.emit(types.WalletSwitched{Balance: data})
	case types.ActionSwitchNetwork:
		c.emit(types.NetworkSwitched{Balance: data})
	default:
		c.emit(types.BalanceUpdated{Balance: data})
	}
	c.hide()

	if m.Action != types.ActionBalanceResponse && c.cfg.RefreshOnSwitch && c.available {
		// the active wallet or network changed under us
		_ = c.enqueue(c.networksOp())
		_ = c.enqueue(c.balanceOp())
	}
}

func (c *Controller) applyBalance(data types.BalanceResponseData) {
	var w types.WalletCredential
	if c.wallet != nil {
		w = *c.wallet
	}
	if data.WalletAddress != "" {
		w.Address = data.WalletAddress
	}
	if data.Chain != "" {
		w.Chain = data.Chain
	}
	if data.Network != "" {
		w.Network = data.Network
	}
	w.Balance = data.Balance
	w.Decimals = data.Decimals
	w.Symbol = data.Symbol
	c.setWallet(w)
}

func (c *Controller) handleSignMessage(m *types.SignMessageResponseMessage) {
	if m.Data == nil {
		c.nullData("sign message")
		return
	}
	if !m.Data.Success {
		c.protocolError("Failed to sign message", m.Data.Error, "")
		c.hide()
		return
	}

	ev := types.MessageSigned{Signature: m.Data.Signature, Message: m.Data.Message}
	if c.cfg.VerifySignatures && types.Chain(c.sessionChain()).IsEVM() {
		signer := m.Data.WalletAddress
		if signer == "" {
			signer = c.address
		}
		ok, err := utils.VerifyPersonalMessage(m.Data.Message, m.Data.Signature, signer)
		if err != nil {
			c.log.Warn("signature verification failed", map[string]any{"error": err.Error()})
		}
		ev.Verified = ok
	}
	c.emit(ev)
	c.hide()
}

func (c *Controller) handleTransaction(m *types.TransactionResponseMessage) {
	if m.Data == nil {
		c.nullData("send transaction")
		return
	}
	if !m.Data.Success {
		c.protocolError("Transaction failed", m.Data.Error, "")
		c.hide()
		return
	}
	if err := utils.ValidateTransactionHash(m.Data.TransactionHash, c.sessionChain()); err != nil {
		c.log.Warn("unexpected transaction hash format", map[string]any{"hash": m.Data.TransactionHash, "error": err.Error()})
	}
	c.emit(types.TransactionSent{Hash: m.Data.TransactionHash})
	c.hide()
}

// handleWalletError leaves the panel open; the frontend is still showing the failure.
func (c *Controller) handleWalletError(m *types.WalletErrorMessage) {
	if m.Data == nil {
		c.emitError(types.NewError(types.ErrNullData, "Wallet error: Invalid response"), "")
		return
	}
	c.protocolError("Wallet error", m.Data.Error, m.Data.ErrorCode)
	if types.IsDisconnectCode(m.Data.ErrorCode) {
		c.clearSession()
		c.emit(types.WalletDisconnected{})
	}
}

func (c *Controller) handleWallets(m *types.WalletsResponseMessage) {
	if m.Data == nil {
		c.nullData("get wallets")
		return
	}
	if !m.Data.Success && m.Data.Error != "" {
		c.protocolError("Failed to get wallets", m.Data.Error, "")
	} else {
		c.emit(types.WalletsReceived{Wallets: m.Data.Wallets, Primary: m.Data.PrimaryWallet})
	}
	c.hide()
}

func (c *Controller) handleNetworks(m *types.NetworksResponseMessage) {
	if m.Data == nil {
		c.nullData("get networks")
		return
	}
	if !m.Data.Success && m.Data.Error != "" {
		c.protocolError("Failed to get networks", m.Data.Error, "")
	} else {
		c.emit(types.NetworksReceived{Networks: m.Data.Networks})
	}
	c.hide()
}
