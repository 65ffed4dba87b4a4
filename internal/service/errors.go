package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind категория бизнес-ошибки; HTTP слой переводит её в статус
type ErrorKind string

const (
	KindValidation      ErrorKind = "VALIDATION_ERROR" // 400
	KindNotFound        ErrorKind = "NOT_FOUND"        // 404
	KindConflict        ErrorKind = "CONFLICT"         // 409
	KindForbidden       ErrorKind = "FORBIDDEN"        // 403
	KindInvalidState    ErrorKind = "INVALID_STATE"    // 400
	KindUnauthenticated ErrorKind = "UNAUTHENTICATED"  // 401
)

// Error отказ по бизнес-правилу. Всё, что не *Error, считается внутренней ошибкой.
type Error struct {
	Kind    ErrorKind
	Message string
	// Fields ошибки по полям запроса (только для VALIDATION_ERROR)
	Fields map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(parts, "; "))
}

// KindOf возвращает категорию err или "" для внутренних ошибок
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func validationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid request", Fields: fields}
}

func fieldError(field, message string) *Error {
	return validationError(map[string]string{field: message})
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func unauthenticated(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthenticated, Message: fmt.Sprintf(format, args...)}
}
