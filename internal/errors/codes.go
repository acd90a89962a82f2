package errors

// PostgreSQL Error Codes (SQLSTATE)
// Based on PostgreSQL error codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
// Only the classes surfaced by query planning and catalog access are kept.

// Class 00 - Successful Completion
const (
	SuccessfulCompletion = "00000"
)

// Class 01 - Warning
const (
	Warning           = "01000"
	DeprecatedFeature = "01P01"
)

// Class 02 - No Data
const (
	NoData = "02000"
)

// Class 0A - Feature Not Supported
const (
	FeatureNotSupported = "0A000"
)

// Class 22 - Data Exception
const (
	DataException             = "22000"
	NumericValueOutOfRange    = "22003"
	InvalidParameterValue     = "22023"
	InvalidTextRepresentation = "22P02"
	InvalidJSONText           = "22032"
	SQLJSONScalarRequired     = "2203F"
)

// Class 42 - Syntax Error or Access Rule Violation
const (
	SyntaxErrorOrAccessRuleViolation = "42000"
	SyntaxError                      = "42601"
	InsufficientPrivilege            = "42501"
	InvalidName                      = "42602"
	NameTooLong                      = "42622"
	DatatypeMismatch                 = "42804"
	UndefinedColumn                  = "42703"
	UndefinedFunction                = "42883"
	UndefinedTable                   = "42P01"
	UndefinedObject                  = "42704"
	DuplicateTable                   = "42P07"
	DuplicateObject                  = "42710"
	InvalidObjectDefinition          = "42P17"
)

// Class 53 - Insufficient Resources
const (
	InsufficientResources      = "53000"
	OutOfMemory                = "53200"
	ConfigurationLimitExceeded = "53400"
)

// Class 54 - Program Limit Exceeded
const (
	ProgramLimitExceeded = "54000"
	StatementTooComplex  = "54001"
	TooManyArguments     = "54023"
)

// Class 55 - Object Not In Prerequisite State
const (
	ObjectNotInPrerequisiteState = "55000"
	ObjectInUse                  = "55006"
	CantChangeRuntimeParam       = "55P02"
)

// Class 57 - Operator Intervention
const (
	OperatorIntervention = "57000"
	QueryCanceled        = "57014"
	AdminShutdown        = "57P01"
)

// Class 58 - System Error
const (
	SystemError   = "58000"
	IOError       = "58030"
	UndefinedFile = "58P01"
)

// Class F0 - Configuration File Error
const (
	ConfigFileError = "F0000"
)

// Class XX - Internal Error
const (
	InternalError  = "XX000"
	DataCorrupted  = "XX001"
	IndexCorrupted = "XX002"
)
