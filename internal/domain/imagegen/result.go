package imagegen

import "time"

// Result is the outcome of a successful call.
type Result struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
	// ObjectKey is set when the artifact was uploaded to the object store.
	ObjectKey string `json:"object_key,omitempty"`

	// Image is set only when the request asked for the bytes.
	Image []byte `json:"-"`
	// Metadata is set only when the request asked for it.
	Metadata *Metadata `json:"metadata,omitempty"`

	seed         string
	finishReason string
}

// Metadata carries the response headers describing a generation.
type Metadata struct {
	Seed         string `json:"seed"`
	FinishReason string `json:"finish_reason"`
}

// AsyncJob is a submitted generation awaiting its result.
type AsyncJob struct {
	ID        string
	CreatedAt time.Time
}

// image is a decoded terminal response.
type image struct {
	data         []byte
	format       string
	seed         string
	finishReason string
}
