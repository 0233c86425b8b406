package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a command failed.
type ErrorKind int

const (
	KindMissingArgument ErrorKind = iota + 1
	KindInvalidNumber
	KindOutOfRange
	KindUnsupportedCurrency
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingArgument:
		return "missing_argument"
	case KindInvalidNumber:
		return "invalid_number"
	case KindOutOfRange:
		return "out_of_range"
	case KindUnsupportedCurrency:
		return "unsupported_currency"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// CommandError is returned by every command that fails. Message is safe to
// show to the user as is.
type CommandError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func newCommandError(kind ErrorKind, message string) *CommandError {
	return &CommandError{Kind: kind, Message: message}
}

func storageFailure(err error) *CommandError {
	return &CommandError{Kind: KindStorage, Message: msgStorageFailure, Err: err}
}

// KindOf returns the kind of a *CommandError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// IsUsageError reports whether err was caused by the user's input rather
// than by the bot.
func IsUsageError(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind != KindStorage
}

// UserMessage maps any error to the text shown in the chat.
func UserMessage(err error) string {
	var ce *CommandError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return msgGenericFailure
}
