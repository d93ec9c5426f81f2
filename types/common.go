package types

import (
	"encoding/json"
	"fmt"
)

// WalletCredential identifies one wallet the user controls on one chain.
type WalletCredential struct {
	Address    string    `json:"address"`
	WalletName string    `json:"walletName"`
	Chain      string    `json:"chain"`
	Format     string    `json:"format"`
	ID         string    `json:"id"`
	Network    string    `json:"network"`
	Balance    NumString `json:"balance"`
	Decimals   int       `json:"decimals"`
	Symbol     string    `json:"symbol"`
}

// ShortAddress renders the address as 0x1234...abcd for logs and UIs.
func (w WalletCredential) ShortAddress() string {
	return ShortenAddress(w.Address)
}

func (w WalletCredential) String() string {
	return fmt.Sprintf("%s (%s) on %s", w.WalletName, w.ShortAddress(), w.Chain)
}

// ShortenAddress keeps the first six and last four characters.
func ShortenAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

type UserInfo struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	IsVerified bool   `json:"isVerified"`
}

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Denom    string `json:"denom"`
	IconURL  string `json:"iconUrl"`
}

type NetworkInfo struct {
	ChainID        string         `json:"chainId"`
	NetworkID      string         `json:"networkId"`
	Cluster        string         `json:"cluster"`
	GenesisHash    string         `json:"genesisHash"`
	IconURL        string         `json:"iconUrl"`
	IsTestnet      bool           `json:"isTestnet"`
	Key            string         `json:"key"`
	Name           string         `json:"name"`
	VanityName     string         `json:"vanityName"`
	NativeCurrency NativeCurrency `json:"nativeCurrency"`
}

// DisplayName prefers the vanity name the frontend configured.
func (n NetworkInfo) DisplayName() string {
	if n.VanityName != "" {
		return n.VanityName
	}
	return n.Name
}

// ErrorInfo is the error block embedded in failed frontend replies.
type ErrorInfo struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
	Reason    string `json:"reason"`
}

// NumString is a decimal carried as a string, accepting JSON numbers as well.
type NumString string

func (n *NumString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumString(s)
		return nil
	}
	if string(b) == "null" {
		*n = ""
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("invalid numeric value %s", string(b))
	}
	*n = NumString(num.String())
	return nil
}

func (n NumString) String() string { return string(n) }
