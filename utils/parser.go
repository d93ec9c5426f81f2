package utils

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/vitwit/walletbridge/types"
)

// EnvPrefix is the prefix of every environment variable read by LoadBridgeConfigFromEnv.
const EnvPrefix = "WALLETBRIDGE"

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ParseBridgeConfig parses BridgeConfig from JSON on top of the defaults
func ParseBridgeConfig(data []byte) (*types.BridgeConfig, error) {
	config := types.DefaultConfig()

	if err := json.Unmarshal(data, config); err != nil {
		return nil, &types.BridgeError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to parse bridge config: %v", err),
		}
	}

	if err := ValidateBridgeConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadBridgeConfigFromEnv reads BridgeConfig from prefixed environment variables,
// e.g. WALLETBRIDGE_START_URL or WALLETBRIDGE_MANIFEST_APP_NAME.
func LoadBridgeConfigFromEnv(prefix string) (*types.BridgeConfig, error) {
	if prefix == "" {
		prefix = EnvPrefix
	}

	var config types.BridgeConfig
	if err := envconfig.Process(prefix, &config); err != nil {
		return nil, &types.BridgeError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to process env config: %v", err),
		}
	}

	if err := ValidateBridgeConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ValidateBridgeConfig runs struct tags plus the checks tags cannot express.
func ValidateBridgeConfig(config *types.BridgeConfig) error {
	if config == nil {
		return &types.BridgeError{Code: types.ErrConfigError, Message: "config is nil"}
	}

	if err := validate.Struct(config); err != nil {
		return &types.BridgeError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}

	switch {
	case config.RetryDelay < 0, config.QueueAdvanceDelay < 0, config.OperationTimeout < 0, config.TransitionDuration < 0:
		return &types.BridgeError{
			Code:    types.ErrConfigError,
			Message: "durations cannot be negative",
		}
	}

	return nil
}

// CompactJSON removes whitespace from JSON
func CompactJSON(data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	if err := json.Compact(&buffer, data); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// NormalizeJSON formats JSON with consistent indentation
func NormalizeJSON(data interface{}) ([]byte, error) {
	return json.MarshalIndent(data, "", "  ")
}
