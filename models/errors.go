package models

import (
	"github.com/cockroachdb/errors"
)

// Base errors, related to default API status codes
var (
	// BadParameterError is rendered with the http status code 400
	BadParameterError = errors.New("bad parameter")

	// UnAuthorizedError is rendered with the http status code 401
	UnAuthorizedError = errors.New("unauthorized")

	// NotFoundError is rendered with the http status code 404
	NotFoundError = errors.New("not found")

	// ConflictError is rendered with the http status code 409
	ConflictError = errors.New("duplicate value")
)

// Rule definition errors
var (
	ErrUnknownActionKind = errors.Wrap(BadParameterError, "unknown rule action kind")
	ErrUnknownRuleSource = errors.Wrap(BadParameterError, "unknown rule source tier")
	ErrInvalidRuleAction = errors.Wrap(BadParameterError, "rule action payload does not match its action kind")
	ErrInvalidCondition  = errors.Wrap(BadParameterError, "invalid rule condition")
)

// Rule engine errors
var (
	ErrConcurrentRun          = errors.Wrap(ConflictError, "a rule engine run is already in progress for this project")
	ErrPanicInRuleExecution   = errors.New("panic during rule execution")
	ErrProjectNotFound        = errors.Wrap(NotFoundError, "project not found")
	ErrBatchAlreadyRolledBack = errors.Wrap(BadParameterError, "batch operation is already rolled back")
)
