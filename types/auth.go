package types

// Auth domain payloads.

type AuthSuccessData struct {
	User          *UserInfo          `json:"user"`
	PrimaryWallet *WalletCredential  `json:"primaryWallet"`
	Wallets       []WalletCredential `json:"wallets"`
	AuthMethod    string             `json:"authMethod"`
	Provider      string             `json:"provider"`
	SessionToken  string             `json:"sessionToken"`
}

type AuthSuccessMessage struct {
	Envelope
	Data *AuthSuccessData `json:"data"`
}

type AuthFailedMessage struct {
	Envelope
	Data *ErrorInfo `json:"data"`
}

type LoggedOutData struct {
	Success   bool  `json:"success"`
	Timestamp int64 `json:"timestamp"`
}

type LoggedOutMessage struct {
	Envelope
	Data *LoggedOutData `json:"data"`
}

type HandleAuthenticatedUserData struct {
	User         *UserInfo          `json:"user"`
	Wallets      []WalletCredential `json:"wallets"`
	SessionToken string             `json:"sessionToken"`
}

type HandleAuthenticatedUserMessage struct {
	Envelope
	Data *HandleAuthenticatedUserData `json:"data"`
}

type JwtTokenResponseData struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Timestamp int64  `json:"timestamp"`
}

type JwtTokenResponseMessage struct {
	Envelope
	Data *JwtTokenResponseData `json:"data"`
}

// Outbound auth request payloads. No omitempty: the frontend matches on key presence.

// EmptyData serialises to {}.
type EmptyData struct{}

type AuthRequestData struct {
	GameID         string   `json:"gameId"`
	RequiredChains []string `json:"requiredChains"`
	SessionExpiry  int64    `json:"sessionExpiry"`
}

const DefaultLogoutReason = "user_requested"

type LogoutData struct {
	Reason string `json:"reason"`
}

type OpenProfileData struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
}

type OAuthAccessTokenData struct {
	Type        string `json:"type"`
	Action      Action `json:"action"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   string `json:"expires_in"`
	State       string `json:"state"`
}

type OAuthErrorData struct {
	Type             string `json:"type"`
	Action           Action `json:"action"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
