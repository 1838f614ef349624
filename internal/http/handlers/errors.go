package handlers

// Error codes carried in ErrorResponse.Code. Generic codes mirror the HTTP
// status; the rest name a specific failure.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	ErrCodeInvalidMembership = "invalid_membership"
	ErrCodeUnknownUser       = "unknown_user"
	ErrCodeCreateFailed      = "create_failed"
	ErrCodeListFailed        = "list_failed"
)
