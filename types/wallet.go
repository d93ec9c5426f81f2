package types

// BalanceResponseData is shared by balance replies and the switch acks.
type BalanceResponseData struct {
	WalletAddress string    `json:"walletAddress"`
	Chain         string    `json:"chain"`
	Network       string    `json:"network"`
	Balance       NumString `json:"balance"`
	Symbol        string    `json:"symbol"`
	Decimals      int       `json:"decimals"`
	TokenAddress  string    `json:"tokenAddress"`
	USDValue      float64   `json:"usdValue"`
	Success       bool      `json:"success"`
	Error         string    `json:"error"`
}

// BalanceResponseMessage is also produced for switchWallet and switchNetwork acks;
// the envelope action tells them apart.
type BalanceResponseMessage struct {
	Envelope
	Data *BalanceResponseData `json:"data"`
}

type SignMessageResponseData struct {
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"`
	Message       string `json:"message"`
	Success       bool   `json:"success"`
	Error         string `json:"error"`
}

type SignMessageResponseMessage struct {
	Envelope
	Data *SignMessageResponseData `json:"data"`
}

type TransactionResponseData struct {
	WalletAddress   string    `json:"walletAddress"`
	TransactionHash string    `json:"transactionHash"`
	Success         bool      `json:"success"`
	Error           string    `json:"error"`
	GasUsed         NumString `json:"gasUsed"`
	BlockNumber     int64     `json:"blockNumber"`
	Confirmations   int       `json:"confirmations"`
}

type TransactionResponseMessage struct {
	Envelope
	Data *TransactionResponseData `json:"data"`
}

type WalletConnectedData struct {
	Wallet  *WalletCredential `json:"wallet"`
	Success bool              `json:"success"`
}

type WalletConnectedMessage struct {
	Envelope
	Data *WalletConnectedData `json:"data"`
}

type WalletDisconnectedData struct {
	WalletAddress string `json:"walletAddress"`
	Reason        string `json:"reason"`
	Success       bool   `json:"success"`
}

type WalletDisconnectedMessage struct {
	Envelope
	Data *WalletDisconnectedData `json:"data"`
}

type WalletErrorData struct {
	ErrorInfo
	WalletAddress string `json:"walletAddress"`
	Action        string `json:"action"`
}

type WalletErrorMessage struct {
	Envelope
	Data *WalletErrorData `json:"data"`
}

type WalletsResponseData struct {
	Wallets       []WalletCredential `json:"wallets"`
	PrimaryWallet *WalletCredential  `json:"primaryWallet"`
	Success       bool               `json:"success"`
	Error         string             `json:"error"`
}

type WalletsResponseMessage struct {
	Envelope
	Data *WalletsResponseData `json:"data"`
}

type NetworksResponseData struct {
	Networks []NetworkInfo `json:"networks"`
	Success  bool          `json:"success"`
	Error    string        `json:"error"`
}

type NetworksResponseMessage struct {
	Envelope
	Data *NetworksResponseData `json:"data"`
}

// Outbound wallet request payloads.

type GetBalanceData struct {
	WalletAddress string `json:"walletAddress"`
	Chain         string `json:"chain"`
	TokenAddress  string `json:"tokenAddress"`
	Network       string `json:"network"`
}

type SignMessageData struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
	Message       string `json:"message" validate:"required"`
}

// TransactionKind is the "type" field of a transaction request.
type TransactionKind string

const (
	TransactionSend     TransactionKind = "send"
	TransactionContract TransactionKind = "contract"
	TransactionApproval TransactionKind = "approval"
)

type TransactionData struct {
	WalletAddress string          `json:"walletAddress" validate:"required"`
	To            string          `json:"to" validate:"required"`
	Value         string          `json:"value" validate:"required"`
	Data          string          `json:"data"`
	Chain         string          `json:"chain" validate:"required"`
	Network       string          `json:"network" validate:"required"`
	Type          TransactionKind `json:"type" validate:"oneof=send contract approval"`
}

type SwitchWalletData struct {
	WalletID string `json:"walletId" validate:"required"`
}

type SwitchNetworkData struct {
	NetworkChainID string `json:"networkChainId" validate:"required"`
}
