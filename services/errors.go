package services

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable machine-readable code surfaced to API callers.
// These strings are a contract; never rename them.
type ErrorCode string

const (
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	CodeBadRequest           ErrorCode = "BAD_REQUEST"
	CodeEntryListLockInvalid ErrorCode = "ENTRY_LIST_LOCK_INVALID"
	CodeEntryListNotFinal    ErrorCode = "ENTRY_LIST_NOT_FINAL"
	CodeScheduleWindow       ErrorCode = "SCHEDULE_WINDOW_VIOLATION"
)

// DomainError carries a stable code plus structured details naming the
// offending fields, so callers can render a precise message.
type DomainError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newDomainError(code ErrorCode, message string, details map[string]interface{}) *DomainError {
	return &DomainError{Code: code, Message: message, Details: details}
}

func notFoundError(message string) *DomainError {
	return newDomainError(CodeNotFound, message, nil)
}

func badRequestError(message string, details map[string]interface{}) *DomainError {
	return newDomainError(CodeBadRequest, message, details)
}

func scheduleWindowError(message string, details map[string]interface{}) *DomainError {
	return newDomainError(CodeScheduleWindow, message, details)
}

// CodeOf extracts the domain error code, or "" for unclassified errors.
func CodeOf(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

var (
	ErrUnauthorized = newDomainError(CodeUnauthorized, "missing or invalid session token", nil)

	ErrTournamentNotFound    = notFoundError("tournament not found")
	ErrMatchNotFound         = notFoundError("match not found")
	ErrLeagueNotFound        = notFoundError("league not found")
	ErrEntryNotFound         = notFoundError("entry list item not found")
	ErrScoringConfigNotFound = notFoundError("scoring config not found")
	ErrFantasyTeamNotFound   = notFoundError("fantasy team not found")
	ErrUserNotFound          = notFoundError("user not found")
)
