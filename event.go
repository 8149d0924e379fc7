package tabload

import (
	"fmt"
	"io"
)

// Event identifies a source object to load, such as a Cloud Storage
// notification or a local file name.
type Event struct {
	Name   string `json:"name"`
	Bucket string `json:"bucket"`

	// for test
	source io.Reader
}

// FullPath returns gs://bucket/name for storage objects and the bare name otherwise.
func (e *Event) FullPath() string {
	if e.Bucket == "" {
		return e.Name
	}
	return fmt.Sprintf("gs://%s/%s", e.Bucket, e.Name)
}
