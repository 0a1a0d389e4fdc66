package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeNotFound              Code = "NOT_FOUND"
	CodeDuplicateEntry        Code = "DUPLICATE_ENTRY"
	CodeIndexOutOfRange       Code = "INDEX_OUT_OF_RANGE"
	CodeInvalidQuantity       Code = "INVALID_QUANTITY"
	CodeEmptyQuote            Code = "EMPTY_QUOTE"
	CodeTemplateAssetNotFound Code = "TEMPLATE_ASSET_NOT_FOUND"
	CodeTemplateUnreadable    Code = "TEMPLATE_UNREADABLE"
	CodeTemplateMalformed     Code = "TEMPLATE_MALFORMED"
	CodeTemplateMissingTable  Code = "TEMPLATE_MISSING_TABLE"
	CodeUserCancelled         Code = "USER_CANCELLED"
	CodeInternal              Code = "INTERNAL_ERROR"
	CodeDependency            Code = "DEPENDENCY_ERROR"
)

// Metadata describes how an error code is surfaced to the user.
type Metadata struct {
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	// Silent errors end the current flow without a failure message.
	Silent bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		PublicMessage:  "record not found",
		DetailsAllowed: true,
	},
	CodeDuplicateEntry: {
		PublicMessage:  "this item is already in the price list",
		DetailsAllowed: true,
	},
	CodeIndexOutOfRange: {
		PublicMessage:  "no price list line at that position",
		DetailsAllowed: true,
	},
	CodeInvalidQuantity: {
		PublicMessage:  "quantity must be a positive whole number",
		DetailsAllowed: false,
	},
	CodeEmptyQuote: {
		PublicMessage:  "price list is empty",
		DetailsAllowed: false,
	},
	CodeTemplateAssetNotFound: {
		PublicMessage:  "template file not found",
		DetailsAllowed: true,
	},
	CodeTemplateUnreadable: {
		PublicMessage:  "template file could not be opened",
		DetailsAllowed: true,
	},
	CodeTemplateMalformed: {
		PublicMessage:  "template document could not be parsed",
		DetailsAllowed: true,
	},
	CodeTemplateMissingTable: {
		PublicMessage:  "no table found in template file",
		DetailsAllowed: false,
	},
	CodeUserCancelled: {
		PublicMessage:  "cancelled",
		DetailsAllowed: false,
		Silent:         true,
	},
	CodeInternal: {
		Retryable:      true,
		PublicMessage:  "internal error",
		DetailsAllowed: false,
	},
	CodeDependency: {
		Retryable:      true,
		PublicMessage:  "storage unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// CodeOf returns the code of err, CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.code
	}
	return CodeInternal
}

// UserMessage renders err the way it is shown to the user: the public
// message of its code followed by the detail message when allowed.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	typed := As(err)
	if typed == nil {
		return err.Error()
	}
	meta := MetadataFor(typed.code)
	if !meta.DetailsAllowed || typed.message == "" || typed.message == meta.PublicMessage {
		return meta.PublicMessage
	}
	return fmt.Sprintf("%s: %s", meta.PublicMessage, typed.message)
}
