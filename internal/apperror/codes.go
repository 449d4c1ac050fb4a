package apperror

// Code identifies an error condition independent of its message.
type Code string

// General codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Optimizer codes
const (
	// Wallet
	CodeWalletAddressMissing Code = "WALLET_ADDRESS_MISSING"
	CodeWalletConfigInvalid  Code = "WALLET_CONFIG_INVALID"
	CodeInvalidSolanaAddress Code = "INVALID_SOLANA_ADDRESS"
	CodeInsufficientBalance  Code = "INSUFFICIENT_BALANCE"
	CodeBroadcastFailed      Code = "BROADCAST_FAILED"

	// Chain (Solana RPC)
	CodeChainRPCError         Code = "CHAIN_RPC_ERROR"
	CodeChainConnectionFailed Code = "CHAIN_CONNECTION_FAILED"

	// Market data
	CodePriceUnavailable Code = "PRICE_UNAVAILABLE"
	CodePriceStale       Code = "PRICE_STALE"
	CodePoolNotFound     Code = "POOL_NOT_FOUND"
	CodeUnknownToken     Code = "UNKNOWN_TOKEN"

	// Quoting and swaps
	CodeQuoteUnavailable       Code = "QUOTE_UNAVAILABLE"
	CodeQuoteFailed            Code = "QUOTE_FAILED"
	CodeInvalidQuote           Code = "INVALID_QUOTE"
	CodeVenueNotFound          Code = "VENUE_NOT_FOUND"
	CodeSwapTransactionMissing Code = "SWAP_TRANSACTION_MISSING"
	CodeSwapBuildFailed        Code = "SWAP_BUILD_FAILED"
	CodeInvalidTradeSize       Code = "INVALID_TRADE_SIZE"

	// Strategy
	CodeUnknownOpportunityKind Code = "UNKNOWN_OPPORTUNITY_KIND"
	CodeDetectionFailed        Code = "DETECTION_FAILED"

	// WebSocket
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// Circuit breaker
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
