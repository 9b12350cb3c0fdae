package vision

import "errors"

var (
	// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("vision quota exceeded")
	// ErrTimeout indicates the provider did not answer in time. Only this error is retried.
	ErrTimeout = errors.New("vision request timed out")
	// ErrEmptyResponse means the model answered with nothing usable.
	ErrEmptyResponse = errors.New("vision response empty")
	// ErrBlocked means the provider returned no candidates, usually a safety block.
	ErrBlocked = errors.New("vision response blocked")
	// ErrUnsupportedImage is returned for uploads that are not JPEG or PNG.
	ErrUnsupportedImage = errors.New("unsupported image type")
)
