package checkpoint

import "fmt"

// NotFoundError reports a checkpoint id with no stored record.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("checkpoint %s not found", e.ID)
}

// IntegrityError reports a checkpoint whose stored content no longer matches
// its recorded hash. Fatal for that checkpoint only; restore fails closed.
type IntegrityError struct {
	ID       string
	WantHash string // hash recorded in the sidecar
	GotHash  string // hash recomputed over the stored content
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checkpoint %s failed integrity check: sidecar records %s, content hashes to %s",
		e.ID, e.WantHash, e.GotHash)
}

// TooLargeError reports document content over the configured checkpoint size
// limit. The content is rejected whole, never truncated.
type TooLargeError struct {
	Size int64
	Max  int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("content is %d bytes, checkpoint limit is %d", e.Size, e.Max)
}
