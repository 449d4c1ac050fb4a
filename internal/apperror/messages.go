package apperror

var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeWalletAddressMissing: "AgentWallet Solana address not found",
	CodeWalletConfigInvalid:  "AgentWallet config file is invalid",
	CodeInvalidSolanaAddress: "Invalid Solana address",
	CodeInsufficientBalance:  "Insufficient wallet balance for trade",
	CodeBroadcastFailed:      "Failed to broadcast transaction",

	CodeChainRPCError:         "Solana RPC call failed",
	CodeChainConnectionFailed: "Failed to connect to Solana RPC",

	CodePriceUnavailable: "Token price unavailable",
	CodePriceStale:       "Token price is stale",
	CodePoolNotFound:     "Yield pool not found",
	CodeUnknownToken:     "Unknown token",

	CodeQuoteUnavailable:       "No quote available for pair",
	CodeQuoteFailed:            "Failed to get swap quote",
	CodeInvalidQuote:           "Invalid quote data",
	CodeVenueNotFound:          "Quote venue not found",
	CodeSwapTransactionMissing: "Failed to get unsigned swap transaction",
	CodeSwapBuildFailed:        "Failed to build swap transaction",
	CodeInvalidTradeSize:       "Invalid trade size",

	CodeUnknownOpportunityKind: "Unknown opportunity kind",
	CodeDetectionFailed:        "Opportunity detection failed",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
