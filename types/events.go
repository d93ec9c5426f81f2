package types

// EventKind names a host-facing event.
type EventKind string

const (
	EventConnectionStatusChanged EventKind = "connectionStatusChanged"
	EventWalletConnected         EventKind = "walletConnected"
	EventUserAuthenticated       EventKind = "userAuthenticated"
	EventWalletInfoUpdated       EventKind = "walletInfoUpdated"
	EventWalletDisconnected      EventKind = "walletDisconnected"
	EventJwtTokenReceived        EventKind = "jwtTokenReceived"
	EventMessageSigned           EventKind = "messageSigned"
	EventTransactionSent         EventKind = "transactionSent"
	EventBalanceUpdated          EventKind = "balanceUpdated"
	EventWalletSwitched          EventKind = "walletSwitched"
	EventNetworkSwitched         EventKind = "networkSwitched"
	EventWalletsReceived         EventKind = "walletsReceived"
	EventNetworksReceived        EventKind = "networksReceived"
	EventWebViewReady            EventKind = "webViewReady"
	EventWebViewClosed           EventKind = "webViewClosed"
	EventError                   EventKind = "error"
)

// Event is emitted by the session controller to the host.
type Event interface {
	Kind() EventKind
}

type ConnectionStatusChanged struct{ Connected bool }

type WalletConnected struct{ Address string }

type UserAuthenticated struct{ User UserInfo }

type WalletInfoUpdated struct{ Wallet WalletCredential }

type WalletDisconnected struct{}

type JwtTokenReceived struct {
	Token  string
	UserID string
	Email  string
}

// MessageSigned carries the signature. Verified is only set when local
// verification ran and succeeded.
type MessageSigned struct {
	Signature string
	Message   string
	Verified  bool
}

type TransactionSent struct{ Hash string }

type BalanceUpdated struct{ Balance BalanceResponseData }

type WalletSwitched struct{ Balance BalanceResponseData }

type NetworkSwitched struct{ Balance BalanceResponseData }

type WalletsReceived struct {
	Wallets []WalletCredential
	Primary *WalletCredential
}

type NetworksReceived struct{ Networks []NetworkInfo }

type WebViewReady struct{}

type WebViewClosed struct{}

type Error struct{ Err *BridgeError }

func (ConnectionStatusChanged) Kind() EventKind { return EventConnectionStatusChanged }
func (WalletConnected) Kind() EventKind         { return EventWalletConnected }
func (UserAuthenticated) Kind() EventKind       { return EventUserAuthenticated }
func (WalletInfoUpdated) Kind() EventKind       { return EventWalletInfoUpdated }
func (WalletDisconnected) Kind() EventKind      { return EventWalletDisconnected }
func (JwtTokenReceived) Kind() EventKind        { return EventJwtTokenReceived }
func (MessageSigned) Kind() EventKind           { return EventMessageSigned }
func (TransactionSent) Kind() EventKind         { return EventTransactionSent }
func (BalanceUpdated) Kind() EventKind          { return EventBalanceUpdated }
func (WalletSwitched) Kind() EventKind          { return EventWalletSwitched }
func (NetworkSwitched) Kind() EventKind         { return EventNetworkSwitched }
func (WalletsReceived) Kind() EventKind         { return EventWalletsReceived }
func (NetworksReceived) Kind() EventKind        { return EventNetworksReceived }
func (WebViewReady) Kind() EventKind            { return EventWebViewReady }
func (WebViewClosed) Kind() EventKind           { return EventWebViewClosed }
func (Error) Kind() EventKind                   { return EventError }
