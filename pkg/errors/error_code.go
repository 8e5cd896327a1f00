package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidPositionSize  ErrorCode = 101
	ErrCodeInvalidCommission    ErrorCode = 102
	ErrCodeInvalidSlippage      ErrorCode = 103
	ErrCodeInvalidCapital       ErrorCode = 104
	ErrCodeInvalidThreshold     ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 106

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeEmptyBarSeries        ErrorCode = 203
	ErrCodeInvalidBar            ErrorCode = 204
	ErrCodeBarsOutOfOrder        ErrorCode = 205
	ErrCodeInvalidSignal         ErrorCode = 206

	// Simulation errors (600-699)
	ErrCodeSimulationFailed     ErrorCode = 600
	ErrCodeEngineNotInitialized ErrorCode = 601
	ErrCodeEngineNoDataPath     ErrorCode = 602
	ErrCodeEngineNoResultsDir   ErrorCode = 603
	ErrCodeEngineNoDatasource   ErrorCode = 604

	// Export errors (700-799)
	ErrCodeResultWriteFailed  ErrorCode = 700
	ErrCodeMetricsWriteFailed ErrorCode = 701
)
