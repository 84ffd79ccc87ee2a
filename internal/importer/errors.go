package importer

import (
	"errors"
	"fmt"
)

// ErrorCode classifies why a file could not be loaded.
type ErrorCode string

const (
	CodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	CodeParseError        ErrorCode = "PARSE_ERROR"
	CodeBinaryDXF         ErrorCode = "BINARY_DXF"
	CodeNoData            ErrorCode = "NO_DATA"
)

// FileLoaderError is returned by the Loader for every failure.
type FileLoaderError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *FileLoaderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FileLoaderError) Unwrap() error {
	return e.Err
}

func loaderError(code ErrorCode, err error, format string, args ...any) *FileLoaderError {
	return &FileLoaderError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first FileLoaderError in err's chain, or ""
// when there is none.
func CodeOf(err error) ErrorCode {
	var fle *FileLoaderError
	if errors.As(err, &fle) {
		return fle.Code
	}
	return ""
}
