package errors

// ErrorCode identifies a class of failure. Codes are grouped by hundreds.
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = 1

	// Configuration and validation (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidVersion       ErrorCode = 104
	ErrCodeVersionMismatch      ErrorCode = 105
	ErrCodeConfigReadFailed     ErrorCode = 106

	// Bar feed (200-299)
	ErrCodeInsufficientData      ErrorCode = 200
	ErrCodeFeedRefreshFailed     ErrorCode = 201
	ErrCodeFeedUnavailable       ErrorCode = 202
	ErrCodeBarOutOfOrder         ErrorCode = 203
	ErrCodeMarketDataParseFailed ErrorCode = 204
	ErrCodeQueryFailed           ErrorCode = 205

	// Indicators (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302
	ErrCodeColumnNotFound         ErrorCode = 303

	// Signal rules and alpha presets (400-499)
	ErrCodeInvalidRule     ErrorCode = 400
	ErrCodeUnknownOperator ErrorCode = 401
	ErrCodeUnknownAlpha    ErrorCode = 402

	// Position state machine (500-599)
	ErrCodeInvalidVolatility ErrorCode = 500
	ErrCodeInvalidPrice      ErrorCode = 501
	ErrCodePositionCorrupted ErrorCode = 502
	ErrCodeComputationPanic  ErrorCode = 503

	// Dispatch and execution (600-699)
	ErrCodeDispatchFailed      ErrorCode = 600
	ErrCodeOrderFailed         ErrorCode = 601
	ErrCodeReconcileIncomplete ErrorCode = 602
	ErrCodeJournalWriteFailed  ErrorCode = 603
)
