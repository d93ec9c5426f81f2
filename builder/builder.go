// Package builder serialises outbound bridge requests.
//
// Every payload is a concrete struct without omitempty so the frontend always
// sees every key, and builders never touch session state.
package builder

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vitwit/walletbridge/types"
)

var validate = validator.New()

// Builder stamps request ids and timestamps. The zero value is not usable; call New.
type Builder struct {
	now   func() time.Time
	newID func() string
}

type Option func(*Builder)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithIDSource overrides the request id generator.
func WithIDSource(newID func() string) Option {
	return func(b *Builder) {
		b.newID = newID
	}
}

func New(opts ...Option) *Builder {
	b := &Builder{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) build(action types.Action, data any) (string, error) {
	if data != nil {
		if err := validate.Struct(data); err != nil {
			return "", types.NewError(types.ErrValidation, "invalid %s payload: %v", action, err)
		}
	}

	req := types.Request{
		Type:      string(types.DomainFor(action)),
		Action:    action,
		RequestID: b.newID(),
		Timestamp: types.NowMillis(b.now()),
		Data:      data,
	}

	out, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s request: %w", action, err)
	}
	return string(out), nil
}

// Auth requests

func (b *Builder) ConnectWallet() (string, error) {
	return b.build(types.ActionConnectWallet, types.EmptyData{})
}

func (b *Builder) Disconnect() (string, error) {
	return b.build(types.ActionDisconnect, types.EmptyData{})
}

func (b *Builder) GetJwtToken() (string, error) {
	return b.build(types.ActionGetJwtToken, types.EmptyData{})
}

func (b *Builder) OpenProfile(walletAddress string) (string, error) {
	return b.build(types.ActionOpenProfile, types.OpenProfileData{WalletAddress: walletAddress})
}

// Logout falls back to the "user_requested" reason.
func (b *Builder) Logout(reason string) (string, error) {
	if reason == "" {
		reason = types.DefaultLogoutReason
	}
	return b.build(types.ActionLogout, types.LogoutData{Reason: reason})
}

func (b *Builder) AuthRequest(gameID string, requiredChains []string, sessionExpiry int64) (string, error) {
	if requiredChains == nil {
		requiredChains = []string{}
	}
	return b.build(types.ActionAuthRequest, types.AuthRequestData{
		GameID:         gameID,
		RequiredChains: requiredChains,
		SessionExpiry:  sessionExpiry,
	})
}

// Wallet requests

func (b *Builder) GetBalance(walletAddress, chain, tokenAddress, network string) (string, error) {
	return b.build(types.ActionGetBalance, types.GetBalanceData{
		WalletAddress: walletAddress,
		Chain:         chain,
		TokenAddress:  tokenAddress,
		Network:       network,
	})
}

// GetWallets carries "data": null.
func (b *Builder) GetWallets() (string, error) {
	return b.build(types.ActionGetWallets, nil)
}

// GetNetworks carries "data": null.
func (b *Builder) GetNetworks() (string, error) {
	return b.build(types.ActionGetNetworks, nil)
}

func (b *Builder) SignMessage(walletAddress, message string) (string, error) {
	return b.build(types.ActionSignMessage, types.SignMessageData{
		WalletAddress: walletAddress,
		Message:       message,
	})
}

// Transaction trims the recipient and value and fills the default chain and network.
func (b *Builder) Transaction(walletAddress, to, value, data, chain, network string) (string, error) {
	if chain == "" {
		chain = string(types.DefaultChain)
	}
	if network == "" {
		network = types.DefaultNetwork
	}
	return b.build(types.ActionTransaction, types.TransactionData{
		WalletAddress: walletAddress,
		To:            strings.TrimSpace(to),
		Value:         strings.TrimSpace(value),
		Data:          data,
		Chain:         chain,
		Network:       network,
		Type:          types.TransactionSend,
	})
}

func (b *Builder) SwitchWallet(walletID string) (string, error) {
	return b.build(types.ActionSwitchWallet, types.SwitchWalletData{WalletID: walletID})
}

func (b *Builder) SwitchNetwork(networkChainID string) (string, error) {
	return b.build(types.ActionSwitchNetwork, types.SwitchNetworkData{NetworkChainID: networkChainID})
}

// OAuth forwarding. These are flat objects without a request envelope.

func (b *Builder) OAuthAccessToken(accessToken, tokenType, expiresIn, state string) (string, error) {
	return encode(types.OAuthAccessTokenData{
		Type:        types.OAuthCallbackType,
		Action:      types.ActionOAuthAccessToken,
		AccessToken: accessToken,
		TokenType:   tokenType,
		ExpiresIn:   expiresIn,
		State:       state,
	})
}

func (b *Builder) OAuthError(errCode, description string) (string, error) {
	if description == "" {
		description = types.DefaultOAuthErrorMessage
	}
	return encode(types.OAuthErrorData{
		Type:             types.OAuthCallbackType,
		Action:           types.ActionOAuthError,
		Error:            errCode,
		ErrorDescription: description,
	})
}

func encode(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
