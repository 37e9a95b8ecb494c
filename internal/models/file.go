package models

import (
	"io"
)

// FileDescriptor is a file held by the merge service, mirrored client-side.
type FileDescriptor struct {
	// StoredName is the server-assigned unique key used for removal.
	StoredName string `json:"stored_name"`

	// OriginalName is the filename supplied at upload time. Not unique.
	OriginalName string `json:"original_name"`

	// Size is the byte size reported by the server.
	Size int64 `json:"size"`
}

// FileCollection is the ordered set of files held by the server.
// Order is server-defined and never re-sorted client-side.
type FileCollection []FileDescriptor

// Clone returns an independent copy. A nil collection clones to an empty one.
func (c FileCollection) Clone() FileCollection {
	out := make(FileCollection, len(c))
	copy(out, c)
	return out
}

// Find returns the descriptor with the given stored name.
func (c FileCollection) Find(storedName string) (FileDescriptor, bool) {
	for _, f := range c {
		if f.StoredName == storedName {
			return f, true
		}
	}
	return FileDescriptor{}, false
}

// TotalSize sums the byte size of every file.
func (c FileCollection) TotalSize() int64 {
	var total int64
	for _, f := range c {
		total += f.Size
	}
	return total
}

// Envelope is the uniform response shape of every merge service operation.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	// Files is nil when the response carried no "files" field.
	Files *FileCollection `json:"files,omitempty"`

	DownloadURL string `json:"download_url,omitempty"`
}

// HasFiles reports whether the response carried a "files" field.
func (e *Envelope) HasFiles() bool {
	return e != nil && e.Files != nil
}

// Collection returns the carried collection, or an empty one when absent.
func (e *Envelope) Collection() FileCollection {
	if e == nil || e.Files == nil {
		return FileCollection{}
	}
	return e.Files.Clone()
}

// RemoveRequest is the JSON body of a remove-file call.
type RemoveRequest struct {
	StoredName string `json:"stored_name"`
}

// Candidate is a file offered to the ingress controller by a picker,
// a drag-and-drop gesture or a drop folder.
type Candidate struct {
	Name     string
	MIMEType string
	Size     int64

	// Open returns the file content. Called once per upload attempt.
	Open func() (io.ReadCloser, error)
}
