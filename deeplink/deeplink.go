// Package deeplink recognises OAuth callback URLs delivered to the host app.
package deeplink

import (
	"net/url"
	"strings"
)

// DefaultPrefixes are checked in order; the bare scheme catches everything else.
var DefaultPrefixes = []string{
	"dynamicunity://auth/callback",
	"dynamicunity://oauth/callback",
	"dynamicunity://auth",
	"dynamicunity://",
}

// Query parameters added to the panel URL when resuming an authorization code flow.
const (
	ParamOAuthCode  = "dynamicOauthCode"
	ParamOAuthState = "dynamicOauthState"
)

type Kind int

const (
	KindNone Kind = iota
	KindCode
	KindToken
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindToken:
		return "token"
	case KindError:
		return "error"
	}
	return "none"
}

// Callback holds the OAuth parameters found in a deep link.
type Callback struct {
	URL              string
	Code             string
	State            string
	AccessToken      string
	TokenType        string
	ExpiresIn        string
	Error            string
	ErrorDescription string
}

// Kind reports which flow the callback continues. An error wins over a code.
func (c Callback) Kind() Kind {
	switch {
	case c.Error != "":
		return KindError
	case c.Code != "":
		return KindCode
	case c.AccessToken != "":
		return KindToken
	}
	return KindNone
}

type Matcher struct {
	prefixes []string
}

// NewMatcher uses DefaultPrefixes when none are given.
func NewMatcher(prefixes ...string) *Matcher {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	return &Matcher{prefixes: prefixes}
}

func (m *Matcher) Matches(link string) bool {
	for _, p := range m.prefixes {
		if strings.HasPrefix(link, p) {
			return true
		}
	}
	return false
}

// Parse extracts callback parameters from the query, or from the fragment when
// the query carries none.
func (m *Matcher) Parse(link string) (Callback, bool) {
	if !m.Matches(link) {
		return Callback{}, false
	}

	u, err := url.Parse(link)
	if err != nil {
		return Callback{URL: link}, true
	}

	params := u.Query()
	if len(params) == 0 && u.Fragment != "" {
		if frag, err := url.ParseQuery(u.Fragment); err == nil {
			params = frag
		}
	}

	return Callback{
		URL:              link,
		Code:             params.Get("code"),
		State:            params.Get("state"),
		AccessToken:      params.Get("access_token"),
		TokenType:        params.Get("token_type"),
		ExpiresIn:        params.Get("expires_in"),
		Error:            params.Get("error"),
		ErrorDescription: params.Get("error_description"),
	}, true
}

// CallbackURL rebuilds the panel URL, keeping only the manifest, with the
// authorization code and state attached.
func CallbackURL(panelURL, code, state string) (string, error) {
	u, err := url.Parse(panelURL)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	if manifest := u.Query().Get("manifest"); manifest != "" {
		q.Set("manifest", manifest)
	}
	q.Set(ParamOAuthCode, code)
	if state != "" {
		q.Set(ParamOAuthState, state)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}
