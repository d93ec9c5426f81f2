// Package parser turns raw strings received from the panel into typed messages.
package parser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/vitwit/walletbridge/logger"
	"github.com/vitwit/walletbridge/types"
)

const (
	messageParam = "message"

	// LegacyWalletName is given to wallets announced through the schema-less path.
	LegacyWalletName = "Legacy Wallet"
)

type Parser struct {
	log    logger.Logger
	logRaw bool
}

// New returns a Parser. When logRaw is set, successfully parsed payloads are logged at debug.
func New(log logger.Logger, logRaw bool) *Parser {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Parser{log: log, logRaw: logRaw}
}

// Parse decodes raw into the one concrete message its envelope selects.
// Unknown envelopes come back as *types.UnknownMessage together with an
// UNKNOWN_MESSAGE error.
func (p *Parser) Parse(raw string) (types.Message, error) {
	data, err := ExtractJSON(raw)
	if err != nil {
		p.log.Error("failed to extract message", map[string]any{"raw": raw, "error": err.Error()})
		return nil, err
	}

	env, err := ParseEnvelope(data)
	if err != nil {
		p.log.Error("failed to parse envelope", map[string]any{"raw": raw, "error": err.Error()})
		return nil, err
	}

	msg, err := decodeMessage(env, data)
	if err != nil {
		if types.AsBridgeError(err, "").Code == types.ErrUnknownMessage {
			p.log.Warn("unknown message", map[string]any{"type": env.Type, "action": env.Action})
			return &types.UnknownMessage{Envelope: env, Raw: raw}, err
		}
		p.log.Error("failed to decode message", map[string]any{"raw": raw, "action": env.Action, "error": err.Error()})
		return nil, err
	}

	if p.logRaw {
		p.log.Debug("parsed message", map[string]any{"type": env.Type, "action": env.Action, "raw": data})
	}
	return msg, nil
}

// ExtractJSON returns the JSON payload of raw, which is either bare JSON or
// scheme://host?message=<percent-encoded JSON>. A literal '+' is kept as '+'.
func ExtractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", types.NewError(types.ErrParse, "empty message")
	}
	if strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}

	u, ok := splitURL(trimmed)
	if !ok {
		return "", types.NewError(types.ErrParse, "message is neither JSON nor a scheme URL")
	}
	msg, ok := u.params[messageParam]
	if !ok || msg == "" {
		return "", types.NewError(types.ErrParse, "missing %q parameter in %s://%s", messageParam, u.scheme, u.path)
	}
	return msg, nil
}

// ParseEnvelope decodes only the header fields.
func ParseEnvelope(data string) (types.Envelope, error) {
	var env types.Envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return env, types.NewError(types.ErrParse, "malformed JSON: %v", err)
	}
	if env.Type == "" || env.Action == "" {
		return env, types.NewError(types.ErrParse, "envelope is missing type or action")
	}
	return env, nil
}

func decodeMessage(env types.Envelope, data string) (types.Message, error) {
	switch env.Type {
	case types.DomainAuth:
		switch env.Action {
		case types.ActionAuthSuccess:
			return decode[types.AuthSuccessMessage](env, data)
		case types.ActionAuthFailed:
			return decode[types.AuthFailedMessage](env, data)
		case types.ActionLoggedOut:
			return decode[types.LoggedOutMessage](env, data)
		case types.ActionHandleAuthenticatedUser:
			return decode[types.HandleAuthenticatedUserMessage](env, data)
		case types.ActionJwtTokenResponse:
			return decode[types.JwtTokenResponseMessage](env, data)
		}

	case types.DomainWallet:
		switch env.Action {
		case types.ActionBalanceResponse, types.ActionSwitchWallet, types.ActionSwitchNetwork:
			return decode[types.BalanceResponseMessage](env, data)
		case types.ActionSignMessageResponse:
			return decode[types.SignMessageResponseMessage](env, data)
		case types.ActionTransactionResponse:
			return decode[types.TransactionResponseMessage](env, data)
		case types.ActionWalletConnected:
			return decode[types.WalletConnectedMessage](env, data)
		case types.ActionWalletDisconnected:
			return decode[types.WalletDisconnectedMessage](env, data)
		case types.ActionWalletError:
			return decode[types.WalletErrorMessage](env, data)
		case types.ActionWalletsResponse:
			return decode[types.WalletsResponseMessage](env, data)
		case types.ActionNetworksResponse:
			return decode[types.NetworksResponseMessage](env, data)
		}

	default:
		return nil, types.NewError(types.ErrUnknownMessage, "unknown message type %q", env.Type)
	}

	return nil, types.NewError(types.ErrUnknownMessage, "unknown %s action %q", env.Type, env.Action)
}

// decode re-parses data into the concrete schema M. M must embed types.Envelope.
func decode[M any, PM interface {
	*M
	types.Message
}](env types.Envelope, data string) (types.Message, error) {
	var msg M
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return nil, types.NewError(types.ErrParse, "malformed %s payload: %v", env.Action, err)
	}
	return PM(&msg), nil
}

// IsLegacyConnected reports the schema-less scheme://connected?address=..&chain=.. form.
func IsLegacyConnected(raw string) bool {
	u, ok := splitURL(strings.TrimSpace(raw))
	return ok && u.path == string(types.ActionLegacyConnected)
}

// LegacyConnected synthesises a walletConnected message from the legacy form.
func LegacyConnected(raw string) (*types.WalletConnectedMessage, error) {
	u, ok := splitURL(strings.TrimSpace(raw))
	if !ok || u.path != string(types.ActionLegacyConnected) {
		return nil, types.NewError(types.ErrParse, "not a legacy connected message")
	}
	address := u.params["address"]
	if address == "" {
		return nil, types.NewError(types.ErrParse, "legacy connected message has no address")
	}
	chain := u.params["chain"]
	if chain == "" {
		chain = string(types.DefaultChain)
	}

	return &types.WalletConnectedMessage{
		Envelope: types.NewEnvelope(types.DomainWallet, types.ActionWalletConnected),
		Data: &types.WalletConnectedData{
			Wallet: &types.WalletCredential{
				Address:    address,
				Chain:      chain,
				WalletName: LegacyWalletName,
			},
			Success: true,
		},
	}, nil
}

// SchemeDomain returns the domain named by the URL host, e.g. uniwebview://wallet?...
// It returns "" for bare JSON or unknown hosts.
func SchemeDomain(raw string) types.Domain {
	u, ok := splitURL(strings.TrimSpace(raw))
	if !ok {
		return ""
	}
	switch types.Domain(strings.ToLower(u.path)) {
	case types.DomainAuth:
		return types.DomainAuth
	case types.DomainWallet:
		return types.DomainWallet
	}
	return ""
}

// ParseRequest decodes an outbound request, leaving its payload raw.
func ParseRequest(raw string) (*types.RawRequest, error) {
	var req types.RawRequest
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &req); err != nil {
		return nil, types.NewError(types.ErrParse, "malformed request: %v", err)
	}
	if req.Action == "" {
		return nil, types.NewError(types.ErrParse, "request has no action")
	}
	return &req, nil
}

type schemeURL struct {
	scheme string
	path   string
	params map[string]string
}

// splitURL is deliberately not url.Parse: query values are decoded with
// path semantics so that '+' survives.
func splitURL(raw string) (schemeURL, bool) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" || strings.ContainsAny(scheme, "{\" ") {
		return schemeURL{}, false
	}
	path, query, _ := strings.Cut(rest, "?")
	u := schemeURL{
		scheme: scheme,
		path:   strings.Trim(path, "/"),
		params: make(map[string]string),
	}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.PathUnescape(key)
		if err != nil {
			continue
		}
		v, err := url.PathUnescape(value)
		if err != nil {
			v = value
		}
		if _, seen := u.params[k]; !seen {
			u.params[k] = v
		}
	}
	return u, true
}

// Describe renders a message for logs and the CLI.
func Describe(msg types.Message) string {
	h := msg.Header()
	return fmt.Sprintf("%s/%s (%s)", h.Type, h.Action, h.RequestID)
}
