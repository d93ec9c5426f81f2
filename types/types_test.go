package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplaySymbol(t *testing.T) {
	tests := []struct {
		chain, inbound, want string
	}{
		{"ethereum", "", "ETH"},
		{"eth", "WETH", "ETH"},
		{"EVM", "", "ETH"},
		{"sui", "", "SUI"},
		{"sol", "", "SOL"},
		{"matic", "", "MATIC"},
		{"bnb", "", "BNB"},
		{"avax", "", "AVAX"},
		{"foo", "", "TOKEN"},
		{"foo", "FOO", "FOO"},
		{"", "  ", "TOKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.chain+"/"+tt.inbound, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplaySymbol(tt.chain, tt.inbound))
		})
	}
}

func TestChainFamily(t *testing.T) {
	assert.True(t, Chain("matic").IsEVM())
	assert.Equal(t, ChainPolygon, Chain("matic").Canonical())
	assert.True(t, Chain("sol").IsSolana())
	assert.Equal(t, FamilyMove, ChainSui.Family())
	assert.Equal(t, FamilyUnknown, Chain("aptos").Family())
	assert.Equal(t, Chain("aptos"), Chain(" Aptos ").Canonical())
}

func TestBridgeErrorIs(t *testing.T) {
	err := fmt.Errorf("connect: %w", NewError(ErrAlreadyConnectedCode, "already connected to %s", "0xabc"))
	assert.True(t, errors.Is(err, ErrAlreadyConnected))
	assert.False(t, errors.Is(err, ErrNotConnected))

	be := AsBridgeError(err, ErrProtocol)
	require.NotNil(t, be)
	assert.Equal(t, ErrAlreadyConnectedCode, be.Code)

	be = AsBridgeError(errors.New("boom"), ErrProtocol)
	assert.Equal(t, ErrProtocol, be.Code)
	assert.Nil(t, AsBridgeError(nil, ErrProtocol))
}

func TestIsDisconnectCode(t *testing.T) {
	assert.True(t, IsDisconnectCode(FrontendWalletNotConnected))
	assert.True(t, IsDisconnectCode(FrontendSessionExpired))
	assert.False(t, IsDisconnectCode(FrontendUserRejected))
}

func TestNowMillisMonotonic(t *testing.T) {
	now := time.Now()
	first := NowMillis(now)
	second := NowMillis(now.Add(-time.Hour))
	assert.GreaterOrEqual(t, second, first)
}

func TestNewEnvelopeUniqueIDs(t *testing.T) {
	a := NewEnvelope(DomainWallet, ActionGetBalance)
	b := NewEnvelope(DomainWallet, ActionGetBalance)
	assert.NotEqual(t, a.RequestID, b.RequestID)
	assert.GreaterOrEqual(t, b.Timestamp, a.Timestamp)
}

func TestPanelURL(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultStartURL, cfg.PanelURL())

	cfg.Manifest.EnvironmentID = "env-1"
	cfg.Manifest.AppOrigin = "https://game.example"
	cfg.Manifest.AppName = "Game"

	u, err := url.Parse(cfg.PanelURL())
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(u.Query().Get("manifest")), &m))
	assert.Equal(t, cfg.Manifest, m)
}

func TestDurationJSON(t *testing.T) {
	var cfg struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"250ms","b":1.5}`), &cfg))
	assert.Equal(t, 250*time.Millisecond, cfg.A.Std())
	assert.Equal(t, 1500*time.Millisecond, cfg.B.Std())

	require.Error(t, json.Unmarshal([]byte(`{"a":true}`), &cfg))

	out, err := json.Marshal(Duration(time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1s"`, string(out))
}

func TestShortenAddress(t *testing.T) {
	assert.Equal(t, "0x1234...cdef", ShortenAddress("0x1234567890abcdef"))
	assert.Equal(t, "0x12", ShortenAddress("0x12"))
}

func TestNumStringAcceptsNumbersAndStrings(t *testing.T) {
	var data BalanceResponseData
	require.NoError(t, json.Unmarshal([]byte(`{"balance":12.5}`), &data))
	assert.Equal(t, NumString("12.5"), data.Balance)

	require.NoError(t, json.Unmarshal([]byte(`{"balance":"1000000000000000000000"}`), &data))
	assert.Equal(t, "1000000000000000000000", data.Balance.String())

	require.NoError(t, json.Unmarshal([]byte(`{"balance":null}`), &data))
	assert.Empty(t, data.Balance)

	assert.Error(t, json.Unmarshal([]byte(`{"balance":true}`), &data))
}

func TestDomainIsCaseInsensitive(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"type":"WALLET","action":"balanceResponse"}`), &env))
	assert.Equal(t, DomainWallet, env.Type)
}
