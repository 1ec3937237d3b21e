package services

import "fmt"

type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

type UnsupportedTypeError struct{ MediaType string }

func (e *UnsupportedTypeError) Error() string {
	if e.MediaType == "" {
		return "Unsupported file type"
	}
	return fmt.Sprintf("Unsupported file type: %s", e.MediaType)
}

// ExtractionEmptyError means a decoder ran but found no text.
type ExtractionEmptyError struct{ Format string }

func (e *ExtractionEmptyError) Error() string {
	return fmt.Sprintf("Could not extract text from %s", e.Format)
}

// ExtractionFailedError wraps a decoder failure such as a malformed PDF or a corrupt archive.
type ExtractionFailedError struct {
	Format string
	Err    error
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("failed to extract %s content: %v", e.Format, e.Err)
}

func (e *ExtractionFailedError) Unwrap() error { return e.Err }

// APIError is any failure of the upstream completion call.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("completion API error (status %d, code %s): %s", e.StatusCode, e.Code, msg)
	case e.StatusCode != 0:
		return fmt.Sprintf("completion API error (status %d): %s", e.StatusCode, msg)
	case e.Code != "":
		return fmt.Sprintf("completion API error (code %s): %s", e.Code, msg)
	default:
		return fmt.Sprintf("completion API error: %s", msg)
	}
}

func (e *APIError) Unwrap() error { return e.Err }
