package types

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const DefaultStartURL = "https://dynamic-sdk-react-app.vercel.app/"

// Duration accepts "1.5s" style strings or plain seconds in JSON and env values.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = Duration(val * float64(time.Second))
		return nil
	case string:
		return d.Decode(val)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Manifest describes the host app to the frontend. It travels in the panel URL.
type Manifest struct {
	Platform      string `json:"platform" envconfig:"PLATFORM" default:"browser"`
	ClientVersion string `json:"clientVersion" envconfig:"CLIENT_VERSION" default:"1"`
	EnvironmentID string `json:"environmentId" envconfig:"ENVIRONMENT_ID"`
	AppOrigin     string `json:"appOrigin" envconfig:"APP_ORIGIN"`
	APIBaseURL    string `json:"apiBaseUrl" envconfig:"API_BASE_URL"`
	AppLogoURL    string `json:"appLogoUrl" envconfig:"APP_LOGO_URL"`
	AppName       string `json:"appName" envconfig:"APP_NAME"`
	CSSOverrides  string `json:"cssOverrides" envconfig:"CSS_OVERRIDES"`
}

// IsValid reports whether the manifest carries the fields the frontend requires.
func (m Manifest) IsValid() bool {
	return m.EnvironmentID != "" && m.AppOrigin != "" && m.AppName != ""
}

// BridgeConfig holds every setting read by the bridge and its transport adapter.
type BridgeConfig struct {
	StartURL string   `json:"startUrl" envconfig:"START_URL" default:"https://dynamic-sdk-react-app.vercel.app/" validate:"required,url"`
	Manifest Manifest `json:"manifest" envconfig:"MANIFEST"`

	HeightRatio               float64  `json:"heightRatio" envconfig:"HEIGHT_RATIO" default:"0.6" validate:"gte=0.2,lte=0.8"`
	BottomOffset              float64  `json:"bottomOffset" envconfig:"BOTTOM_OFFSET" default:"0" validate:"gte=0,lte=0.3"`
	TransitionDuration        Duration `json:"transitionDuration" envconfig:"TRANSITION_DURATION" default:"350ms"`
	EnableClickOutsideToClose bool     `json:"enableClickOutsideToClose" envconfig:"CLICK_OUTSIDE_TO_CLOSE" default:"true"`
	EnableWebViewPreload      bool     `json:"enableWebViewPreload" envconfig:"WEBVIEW_PRELOAD" default:"true"`

	RetryAttempts     int      `json:"retryAttempts" envconfig:"RETRY_ATTEMPTS" default:"1" validate:"gte=0,lte=5"`
	RetryDelay        Duration `json:"retryDelay" envconfig:"RETRY_DELAY" default:"1s"`
	QueueAdvanceDelay Duration `json:"queueAdvanceDelay" envconfig:"QUEUE_ADVANCE_DELAY" default:"500ms"`
	OperationTimeout  Duration `json:"operationTimeout" envconfig:"OPERATION_TIMEOUT" default:"2m"`

	EnableDebugLogs bool `json:"enableDebugLogs" envconfig:"DEBUG_LOGS" default:"true"`
	LogRawMessages  bool `json:"logRawMessages" envconfig:"LOG_RAW_MESSAGES" default:"false"`
	EnableMetrics   bool `json:"enableMetrics" envconfig:"METRICS" default:"false"`

	DefaultChain     string   `json:"defaultChain" envconfig:"DEFAULT_CHAIN" default:"sui" validate:"required"`
	DefaultNetwork   string   `json:"defaultNetwork" envconfig:"DEFAULT_NETWORK" default:"mainnet" validate:"required"`
	StrictChains     []string `json:"strictChains" envconfig:"STRICT_CHAINS"`
	MaxAmount        string   `json:"maxAmount" envconfig:"MAX_AMOUNT" default:"100000" validate:"omitempty,numeric"`
	RefreshOnSwitch  bool     `json:"refreshOnSwitch" envconfig:"REFRESH_ON_SWITCH" default:"true"`
	VerifySignatures bool     `json:"verifySignatures" envconfig:"VERIFY_SIGNATURES" default:"false"`

	ListenAddr     string   `json:"listenAddr" envconfig:"LISTEN_ADDR" default:"127.0.0.1:7420" validate:"omitempty,hostname_port"`
	AllowedOrigins []string `json:"allowedOrigins" envconfig:"ALLOWED_ORIGINS"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *BridgeConfig {
	return &BridgeConfig{
		StartURL: DefaultStartURL,
		Manifest: Manifest{
			Platform:      "browser",
			ClientVersion: "1",
		},
		HeightRatio:               0.6,
		BottomOffset:              0,
		TransitionDuration:        Duration(350 * time.Millisecond),
		EnableClickOutsideToClose: true,
		EnableWebViewPreload:      true,
		RetryAttempts:             1,
		RetryDelay:                Duration(time.Second),
		QueueAdvanceDelay:         Duration(500 * time.Millisecond),
		OperationTimeout:          Duration(2 * time.Minute),
		EnableDebugLogs:           true,
		DefaultChain:              string(ChainSui),
		DefaultNetwork:            DefaultNetwork,
		MaxAmount:                 "100000",
		RefreshOnSwitch:           true,
		ListenAddr:                "127.0.0.1:7420",
	}
}

// PanelURL is the start URL with the manifest attached when it is complete.
func (c *BridgeConfig) PanelURL() string {
	if !c.Manifest.IsValid() {
		return c.StartURL
	}
	manifest, err := json.Marshal(c.Manifest)
	if err != nil {
		return c.StartURL
	}
	u, err := url.Parse(c.StartURL)
	if err != nil {
		return c.StartURL
	}
	q := u.Query()
	q.Set("manifest", string(manifest))
	u.RawQuery = q.Encode()
	return u.String()
}
