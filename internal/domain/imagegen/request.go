package imagegen

import (
	"io"
	"strings"
)

// MaxSeed is the largest seed the API accepts.
const MaxSeed = 4294967294

// Input is an input file given either as a path or as an open stream.
// A path is opened and closed by the client; a stream is read but never closed.
type Input struct {
	Path     string
	Reader   io.Reader
	Filename string
}

// FromPath returns an input read from a file on disk.
func FromPath(path string) Input {
	return Input{Path: path}
}

// FromReader returns an input read from r. name is sent as the part filename.
func FromReader(name string, r io.Reader) Input {
	return Input{Reader: r, Filename: name}
}

func (in Input) empty() bool {
	return in.Path == "" && in.Reader == nil
}

// Request is a single generation, edit, control or upscale call.
type Request struct {
	Family         Family
	Variant        string
	Prompt         string
	NegativePrompt string
	Seed           int64
	OutputFormat   string
	// Params holds variant-specific parameters. Values must be scalars.
	Params map[string]any
	// Files maps an input role to its source.
	Files map[string]Input
	// OutputName overrides the synthesized artifact name. Any extension is removed.
	OutputName string

	ReturnImage    bool
	ReturnMetadata bool
	// Upload copies the artifact to the object store after it is written.
	Upload bool
}

// WithParam sets a variant-specific parameter and returns r.
func (r *Request) WithParam(key string, value any) *Request {
	if r.Params == nil {
		r.Params = make(map[string]any)
	}
	r.Params[key] = value
	return r
}

// WithFile sets an input file and returns r.
func (r *Request) WithFile(role string, in Input) *Request {
	if r.Files == nil {
		r.Files = make(map[string]Input)
	}
	r.Files[role] = in
	return r
}

// baseName returns the caller's output name without extension.
func baseName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	return name
}
