package deeplink

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name string
		link string
		kind Kind
	}{
		{"code in query", "dynamicunity://auth/callback?code=abc&state=xyz", KindCode},
		{"token in fragment", "dynamicunity://oauth/callback#access_token=t&token_type=Bearer&expires_in=3600", KindToken},
		{"error", "dynamicunity://auth?error=access_denied&code=abc", KindError},
		{"bare scheme", "dynamicunity://somewhere", KindNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, ok := m.Parse(tt.link)
			require.True(t, ok)
			assert.Equal(t, tt.kind, cb.Kind())
		})
	}

	_, ok := m.Parse("https://example.com/?code=abc")
	assert.False(t, ok)
}

func TestParseFields(t *testing.T) {
	cb, ok := NewMatcher().Parse("dynamicunity://oauth/callback#access_token=t&token_type=Bearer&expires_in=3600&state=s")
	require.True(t, ok)
	assert.Equal(t, "t", cb.AccessToken)
	assert.Equal(t, "Bearer", cb.TokenType)
	assert.Equal(t, "3600", cb.ExpiresIn)
	assert.Equal(t, "s", cb.State)
}

func TestCustomPrefixes(t *testing.T) {
	m := NewMatcher("mygame://oauth")
	assert.True(t, m.Matches("mygame://oauth?code=1"))
	assert.False(t, m.Matches("dynamicunity://auth?code=1"))
}

func TestCallbackURL(t *testing.T) {
	panel := "https://wallet.example/app?manifest=%7B%22appName%22%3A%22Game%22%7D&other=1#frag"

	out, err := CallbackURL(panel, "abc", "xyz")
	require.NoError(t, err)

	u, err := url.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "wallet.example", u.Host)
	assert.Equal(t, `{"appName":"Game"}`, u.Query().Get("manifest"))
	assert.Equal(t, "abc", u.Query().Get(ParamOAuthCode))
	assert.Equal(t, "xyz", u.Query().Get(ParamOAuthState))
	assert.Empty(t, u.Query().Get("other"))
	assert.Empty(t, u.Fragment)

	out, err = CallbackURL("https://wallet.example/", "abc", "")
	require.NoError(t, err)
	assert.Equal(t, "https://wallet.example/?dynamicOauthCode=abc", out)
}
