package errors

// Category-specific error constructors for query compilation

// Filter errors
func FilterParseError(reason string) *Error {
	return Newf(InvalidJSONText, "invalid query filter: %s", reason)
}

func UnsupportedOperatorError(op string) *Error {
	return Newf(FeatureNotSupported, "query operator %s is not supported", op)
}

func InvalidOperandError(op string, reason string) *Error {
	return Newf(InvalidParameterValue, "invalid operand for %s: %s", op, reason).
		WithHintf("Check the documentation for the %s operator.", op)
}

// Search descriptor errors
func InvalidSearchSpecError(kind, reason string) *Error {
	return Newf(InvalidParameterValue, "invalid %s search specification: %s", kind, reason)
}

func MissingSearchFieldError(kind, field string) *Error {
	return Newf(InvalidParameterValue, "%s search specification requires field \"%s\"", kind, field)
}

// Planner errors
func ContextReuseError(boundTo, reusedFor uint64) *Error {
	return Newf(InternalError, "rewrite context bound to collection %d reused for collection %d", boundTo, reusedFor).
		WithHint("Each relation compilation must allocate a fresh rewrite context.")
}

func PlanStateError(reason string) *Error {
	return Newf(InternalError, "inconsistent plan state: %s", reason)
}

func RestrictionWithoutProbeError(collectionID uint64) *Error {
	return Newf(InternalError, "restriction rewrite for collection %d ran before its path rewrite", collectionID).
		WithHint("Path rewriting must run before restriction annotation.")
}

// Catalog errors
func CatalogUnavailableError(collection string, cause error) *Error {
	return Newf(IOError, "could not read index metadata for collection \"%s\": %v", collection, cause).
		WithCollection(collection)
}

func IndexCorruptedError(indexName string, details string) *Error {
	return Newf(IndexCorrupted, "index \"%s\" contains corrupted metadata", indexName).
		WithDetail(details).
		WithIndex(indexName)
}

// Executor errors
func RecheckError(path string, cause error) *Error {
	return Newf(DataException, "could not recheck predicate on path \"%s\": %v", path, cause).
		WithPath(path)
}

func CursorExhaustedError() *Error {
	return New(NoData, "no more documents")
}

// Configuration errors
func InvalidConfigurationError(parameter, value string) *Error {
	return Newf(ConfigFileError, "invalid value for parameter \"%s\": \"%s\"", parameter, value)
}

func InvalidParameterValueError(parameter, value, reason string) *Error {
	return Newf(InvalidParameterValue, "invalid value for parameter \"%s\": \"%s\"", parameter, value).
		WithDetail(reason)
}
