package source

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// Schema returns the CUE schema melody documents are validated against.
func Schema() string { return schemaSource }

// compile turns a document into a CUE value. JSON is valid CUE, YAML
// goes through the CUE YAML extractor so positions point into the
// original file.
func compile(ctx *cue.Context, name string, data []byte, f Format) (cue.Value, error) {
	var v cue.Value
	switch f {
	case FormatYAML:
		file, err := cueyaml.Extract(name, data)
		if err != nil {
			return cue.Value{}, cueError(ErrCodeParse, name, err)
		}
		v = ctx.BuildFile(file)
	case FormatJSON, FormatCUE:
		v = ctx.CompileBytes(data, cue.Filename(name))
	default:
		return cue.Value{}, loadErrorf(ErrCodeFormat, "unsupported format %q", f)
	}
	if err := v.Err(); err != nil {
		return cue.Value{}, cueError(ErrCodeParse, name, err)
	}
	return v, nil
}

// validate unifies doc with #Melody and requires the result to be
// concrete. It returns the unified melody value.
func validate(ctx *cue.Context, name string, doc cue.Value) (cue.Value, error) {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		panic(fmt.Sprintf("source: embedded schema does not compile: %v", err))
	}
	melody := schema.FillPath(cue.ParsePath("melody"), doc).LookupPath(cue.ParsePath("melody"))
	if err := melody.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, cueError(ErrCodeSchema, name, err)
	}
	return melody, nil
}

// cueError reports the first CUE error, preferring a position inside the
// document over one inside the schema.
func cueError(code, name string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	msg := fmt.Sprintf(format, args...)
	path := first.Path()
	if len(path) > 0 && path[0] == "melody" {
		path = path[1:]
	}
	if len(path) > 0 {
		msg = strings.Join(path, ".") + ": " + msg
	}
	if len(errs) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(errs)-1)
	}
	return &LoadError{Code: code, Message: msg, Pos: documentPos(name, first)}
}

func documentPos(name string, e cueerrors.Error) token.Pos {
	positions := append([]token.Pos{e.Position()}, e.InputPositions()...)
	for _, p := range positions {
		if p.IsValid() && p.Filename() == name {
			return p
		}
	}
	return e.Position()
}
