package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrQuotaExceeded marks hard quota exhaustion reported by the model
// service, as opposed to the per-request rate ceiling the limiter
// enforces. It is not retried: the classifier stops for the run and the
// rest of the pipeline continues.
var ErrQuotaExceeded = errors.New("model quota exhausted")

// FetchError is a paging failure for one playlist after retries.
// Other playlists in the same run are unaffected; state committed for
// earlier pages of this playlist stays committed.
type FetchError struct {
	PlaylistID string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch playlist %s: %v", e.PlaylistID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClassificationError is a permanently failed classification batch.
// The batch's episodes stay uncategorized for a later run.
type ClassificationError struct {
	Batch int
	Err   error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify batch %d: %v", e.Batch, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// isQuotaExhausted detects hard quota errors. The model API reports
// these as RESOURCE_EXHAUSTED payloads; the client surfaces them as
// opaque errors, so the text is matched as a last resort.
func isQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota")
}
