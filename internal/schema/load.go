package schema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// LoadError reports a mapping file that could not be decoded.
type LoadError struct {
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError returns true if err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Load reads a mapping file, choosing the decoder by extension.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read file", Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := DecodeYAML(data)
		if err != nil {
			return nil, withPath(err, path)
		}
		return f, nil
	case ".cue":
		return DecodeCUE(data, path)
	default:
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("unsupported mapping file extension %q", filepath.Ext(path))}
	}
}

// DecodeYAML decodes a YAML mapping file. Unknown keys are rejected.
func DecodeYAML(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Message: "mapping file is empty"}
		}
		return nil, &LoadError{Message: fmt.Sprintf("failed to parse YAML: %v", err), Err: err}
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return &f, nil
}

// DecodeCUE compiles a CUE mapping file, unifies it with the #File
// definition and decodes the result. filename labels error positions.
func DecodeCUE(data []byte, filename string) (*File, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#File"))
	if err := def.Err(); err != nil {
		return nil, formatCUEError(err, filename)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, filename)
	}

	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}

	var f File
	if err := v.Decode(&f); err != nil {
		return nil, formatCUEError(err, filename)
	}
	if err := f.check(); err != nil {
		return nil, withPath(err, filename)
	}
	return &f, nil
}

// check applies the structural rules both encodings share.
func (f *File) check() error {
	if len(f.Entities) == 0 {
		return &LoadError{Message: "no entities declared"}
	}
	for _, name := range f.EntityNames() {
		if name == "" {
			return &LoadError{Message: "entity name is empty"}
		}
		if len(f.Entities[name].Properties) == 0 {
			return &LoadError{Message: fmt.Sprintf("entity %s: no properties declared", name)}
		}
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, path string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Path: path, Message: err.Error(), Err: err}
	}

	// Prefer a position inside the mapping file over one in #File.
	first := errs[0]
	le := &LoadError{Path: path, Message: first.Error(), Err: err}
	for _, pos := range cueerrors.Positions(first) {
		if pos.Filename() == path {
			le.Pos = pos
			break
		}
	}
	return le
}

func withPath(err error, path string) error {
	var le *LoadError
	if errors.As(err, &le) && le.Path == "" {
		le.Path = path
	}
	return err
}
