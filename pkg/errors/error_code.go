package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter          ErrorCode = 100
	ErrCodeInvalidConfiguration      ErrorCode = 101
	ErrCodeMissingParameter          ErrorCode = 109
	ErrCodeInvalidVersion            ErrorCode = 110
	ErrCodeInvalidFilterValue        ErrorCode = 120
	ErrCodeUnknownFilter             ErrorCode = 121
	ErrCodeInvalidConditionForColumn ErrorCode = 122
	ErrCodeMissingRequiredField      ErrorCode = 123
	ErrCodeInvalidLeg                ErrorCode = 124
	ErrCodeInvalidPricingMode        ErrorCode = 125
	ErrCodeUnknownColumn             ErrorCode = 126
	ErrCodeUnsupportedStrategy       ErrorCode = 127
	ErrCodeInvalidOutputFormat       ErrorCode = 128

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeImportFailed          ErrorCode = 203
	ErrCodeWriteFailed           ErrorCode = 204

	// Strategy errors (400-499)
	ErrCodeVersionMismatch ErrorCode = 404

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestConfigError  ErrorCode = 602
	ErrCodeBacktestNoStrategies ErrorCode = 604
	ErrCodeBacktestNoDataPaths  ErrorCode = 606
	ErrCodeBacktestNoResultsDir ErrorCode = 607
	ErrCodeBacktestNoDatasource ErrorCode = 608
	ErrCodeBacktestStageFailed  ErrorCode = 609
)
