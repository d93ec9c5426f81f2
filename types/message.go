package types

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Domain is the message family a payload belongs to.
type Domain string

const (
	DomainAuth   Domain = "auth"
	DomainWallet Domain = "wallet"
)

// UnmarshalJSON lowercases the domain; frontends are not consistent about case.
func (d *Domain) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*d = Domain(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// Action is the wire-stable discriminator inside a domain.
type Action string

// Outbound request actions
const (
	ActionConnectWallet Action = "connectWallet"
	ActionDisconnect    Action = "disconnect"
	ActionSignMessage   Action = "signMessage"
	ActionTransaction   Action = "transaction"
	ActionGetBalance    Action = "getBalance"
	ActionGetWallets    Action = "getWallets"
	ActionGetNetworks   Action = "getNetworks"
	ActionOpenProfile   Action = "openProfile"
	ActionGetJwtToken   Action = "getJwtToken"
	ActionSwitchWallet  Action = "switchWallet"
	ActionSwitchNetwork Action = "switchNetwork"
	ActionLogout        Action = "logout"
	ActionAuthRequest   Action = "authRequest"
)

// Inbound response and event actions
const (
	ActionAuthSuccess             Action = "authSuccess"
	ActionAuthFailed              Action = "authFailed"
	ActionLoggedOut               Action = "loggedOut"
	ActionHandleAuthenticatedUser Action = "handleAuthenticatedUser"
	ActionJwtTokenResponse        Action = "jwtTokenResponse"

	ActionBalanceResponse     Action = "balanceResponse"
	ActionSignMessageResponse Action = "signMessageResponse"
	ActionTransactionResponse Action = "transactionResponse"
	ActionWalletConnected     Action = "walletConnected"
	ActionWalletDisconnected  Action = "walletDisconnected"
	ActionWalletError         Action = "walletError"
	ActionWalletsResponse     Action = "walletsResponse"
	ActionNetworksResponse    Action = "networksResponse"

	// ActionLegacyConnected is the path of the schema-less connect message.
	ActionLegacyConnected Action = "connected"
)

// OAuth forwarding, sent with type "oauth_callback".
const (
	OAuthCallbackType        = "oauth_callback"
	ActionOAuthAccessToken   = Action("access_token")
	ActionOAuthError         = Action("error")
	DefaultOAuthErrorMessage = "OAuth authentication failed"
)

// Envelope is the header shared by every message on the wire.
type Envelope struct {
	Type      Domain `json:"type"`
	Action    Action `json:"action"`
	Timestamp int64  `json:"timestamp"`
	RequestID string `json:"requestId"`
}

var (
	clockMu sync.Mutex
	lastTS  int64
)

// NowMillis returns the current epoch milliseconds, never going backwards
// within the process.
func NowMillis(now time.Time) int64 {
	ts := now.UnixMilli()
	clockMu.Lock()
	defer clockMu.Unlock()
	if ts < lastTS {
		ts = lastTS
	}
	lastTS = ts
	return ts
}

// NewEnvelope stamps a fresh request id and timestamp.
func NewEnvelope(domain Domain, action Action) Envelope {
	return Envelope{
		Type:      domain,
		Action:    action,
		Timestamp: NowMillis(time.Now()),
		RequestID: uuid.NewString(),
	}
}

// Message is the closed set of inbound messages the parser produces.
type Message interface {
	Header() Envelope
	isMessage()
}

// Header returns the envelope. Embedding Envelope makes every variant a Message.
func (e Envelope) Header() Envelope { return e }
func (Envelope) isMessage()         {}

// UnknownMessage carries an envelope the parser could not map to a schema.
type UnknownMessage struct {
	Envelope
	Raw string `json:"-"`
}

// Request is the outbound wire shape. Data is always serialised, as null when absent.
type Request struct {
	Type      string `json:"type"`
	Action    Action `json:"action"`
	RequestID string `json:"requestId"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// RawRequest is a decoded outbound request with its payload left undecoded.
type RawRequest struct {
	Type      string          `json:"type"`
	Action    Action          `json:"action"`
	RequestID string          `json:"requestId"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// DomainFor reports which domain an outbound action is sent on.
func DomainFor(action Action) Domain {
	switch action {
	case ActionConnectWallet, ActionDisconnect, ActionOpenProfile,
		ActionGetJwtToken, ActionLogout, ActionAuthRequest:
		return DomainAuth
	default:
		return DomainWallet
	}
}
