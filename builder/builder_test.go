package builder

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitwit/walletbridge/parser"
	"github.com/vitwit/walletbridge/types"
)

const addr = "0x1111111111111111111111111111111111111111111111111111111111111111"

func fixedBuilder() *Builder {
	n := 0
	return New(
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
		WithIDSource(func() string {
			n++
			return "req-" + string(rune('0'+n))
		}),
	)
}

func decodeKeys(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestEnvelopeFields(t *testing.T) {
	b := fixedBuilder()
	raw, err := b.GetWallets()
	require.NoError(t, err)

	keys := decodeKeys(t, raw)
	for _, k := range []string{"type", "action", "requestId", "timestamp", "data"} {
		assert.Contains(t, keys, k)
	}
	assert.JSONEq(t, `{"type":"wallet","action":"getWallets","requestId":"req-1","timestamp":1700000000000,"data":null}`, raw)
}

func TestRequestShapes(t *testing.T) {
	b := fixedBuilder()

	tests := []struct {
		name   string
		build  func() (string, error)
		domain string
		action types.Action
		data   string
	}{
		{"connect", b.ConnectWallet, "auth", types.ActionConnectWallet, `{}`},
		{"disconnect", b.Disconnect, "auth", types.ActionDisconnect, `{}`},
		{"jwt", b.GetJwtToken, "auth", types.ActionGetJwtToken, `{}`},
		{"profile", func() (string, error) { return b.OpenProfile(addr) }, "auth", types.ActionOpenProfile,
			`{"walletAddress":"` + addr + `"}`},
		{"logout default", func() (string, error) { return b.Logout("") }, "auth", types.ActionLogout,
			`{"reason":"user_requested"}`},
		{"auth request", func() (string, error) { return b.AuthRequest("game", nil, 3600) }, "auth", types.ActionAuthRequest,
			`{"gameId":"game","requiredChains":[],"sessionExpiry":3600}`},
		{"balance", func() (string, error) { return b.GetBalance(addr, "sui", "", "mainnet") }, "wallet", types.ActionGetBalance,
			`{"walletAddress":"` + addr + `","chain":"sui","tokenAddress":"","network":"mainnet"}`},
		{"networks", b.GetNetworks, "wallet", types.ActionGetNetworks, `null`},
		{"sign", func() (string, error) { return b.SignMessage(addr, "hello") }, "wallet", types.ActionSignMessage,
			`{"walletAddress":"` + addr + `","message":"hello"}`},
		{"transaction", func() (string, error) { return b.Transaction(addr, " "+addr+" ", " 1.5 ", "", "", "") }, "wallet", types.ActionTransaction,
			`{"walletAddress":"` + addr + `","to":"` + addr + `","value":"1.5","data":"","chain":"sui","network":"mainnet","type":"send"}`},
		{"switch wallet", func() (string, error) { return b.SwitchWallet("w-2") }, "wallet", types.ActionSwitchWallet,
			`{"walletId":"w-2"}`},
		{"switch network", func() (string, error) { return b.SwitchNetwork("137") }, "wallet", types.ActionSwitchNetwork,
			`{"networkChainId":"137"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.build()
			require.NoError(t, err)

			req, err := parser.ParseRequest(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.domain, req.Type)
			assert.Equal(t, tt.action, req.Action)
			assert.NotEmpty(t, req.RequestID)
			assert.JSONEq(t, tt.data, string(req.Data))
		})
	}
}

func TestValidationFailures(t *testing.T) {
	b := New()

	_, err := b.SignMessage(addr, "")
	require.Error(t, err)
	assert.Equal(t, types.ErrValidation, types.AsBridgeError(err, "").Code)

	_, err = b.SwitchWallet("")
	assert.Error(t, err)

	_, err = b.OpenProfile("")
	assert.Error(t, err)
}

func TestRequestIDsAreUnique(t *testing.T) {
	b := New()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		raw, err := b.GetBalance(addr, "sui", "", "mainnet")
		require.NoError(t, err)
		req, err := parser.ParseRequest(raw)
		require.NoError(t, err)
		assert.False(t, seen[req.RequestID])
		seen[req.RequestID] = true
	}
}

func TestOAuthMessages(t *testing.T) {
	b := New()

	raw, err := b.OAuthAccessToken("tok", "Bearer", "3600", "st")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"oauth_callback","action":"access_token","access_token":"tok","token_type":"Bearer","expires_in":"3600","state":"st"}`, raw)

	raw, err = b.OAuthError("access_denied", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"oauth_callback","action":"error","error":"access_denied","error_description":"OAuth authentication failed"}`, raw)
}

// echo plays the frontend: it answers a request with the structurally
// equivalent response.
func echo(t *testing.T, raw string) string {
	t.Helper()
	req, err := parser.ParseRequest(raw)
	require.NoError(t, err)

	var data map[string]any
	if string(req.Data) != "null" {
		require.NoError(t, json.Unmarshal(req.Data, &data))
	}

	resp := map[string]any{"type": req.Type, "requestId": req.RequestID, "timestamp": req.Timestamp}
	switch req.Action {
	case types.ActionSignMessage:
		resp["action"] = types.ActionSignMessageResponse
		resp["data"] = map[string]any{"walletAddress": data["walletAddress"], "message": data["message"], "signature": "0xsig", "success": true}
	case types.ActionTransaction:
		resp["action"] = types.ActionTransactionResponse
		resp["data"] = map[string]any{"walletAddress": data["walletAddress"], "transactionHash": "0xhash", "success": true}
	case types.ActionGetBalance:
		resp["action"] = types.ActionBalanceResponse
		resp["data"] = map[string]any{"walletAddress": data["walletAddress"], "chain": data["chain"], "network": data["network"], "balance": "1", "success": true}
	case types.ActionSwitchWallet, types.ActionSwitchNetwork:
		resp["action"] = req.Action
		resp["data"] = map[string]any{"success": true}
	default:
		t.Fatalf("no echo for %s", req.Action)
	}

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	return "uniwebview://" + req.Type + "?message=" + strings.ReplaceAll(string(out), " ", "%20")
}

func TestRoundTrip(t *testing.T) {
	b := New()
	p := parser.New(nil, false)

	raw, err := b.SignMessage(addr, "sign me")
	require.NoError(t, err)
	msg, err := p.Parse(echo(t, raw))
	require.NoError(t, err)
	signed := msg.(*types.SignMessageResponseMessage)
	assert.Equal(t, addr, signed.Data.WalletAddress)
	assert.Equal(t, "sign me", signed.Data.Message)

	raw, err = b.Transaction(addr, addr, "2", "", "sui", "testnet")
	require.NoError(t, err)
	msg, err = p.Parse(echo(t, raw))
	require.NoError(t, err)
	assert.Equal(t, addr, msg.(*types.TransactionResponseMessage).Data.WalletAddress)

	raw, err = b.GetBalance(addr, "ethereum", "", "sepolia")
	require.NoError(t, err)
	msg, err = p.Parse(echo(t, raw))
	require.NoError(t, err)
	bal := msg.(*types.BalanceResponseMessage)
	assert.Equal(t, addr, bal.Data.WalletAddress)
	assert.Equal(t, "ethereum", bal.Data.Chain)
	assert.Equal(t, "sepolia", bal.Data.Network)

	raw, err = b.SwitchNetwork("1")
	require.NoError(t, err)
	msg, err = p.Parse(echo(t, raw))
	require.NoError(t, err)
	assert.Equal(t, types.ActionSwitchNetwork, msg.Header().Action)
}
