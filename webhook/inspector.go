package webhook

import (
	"errors"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a request body is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON body")

// Inspector examines a raw request body and returns a View for field
// queries. Classifying a body through a View avoids decoding it into a
// concrete type before it is known which type applies.
type Inspector interface {
	Inspect(raw []byte) (View, error)
}

// View provides read-only field access for discriminator matching. Paths use
// gjson dot syntax, e.g. "event.type".
type View interface {
	// HasField reports whether the path exists in the body.
	HasField(path string) bool

	// GetString returns the string at path, or false if it is absent or not
	// a string.
	GetString(path string) (string, bool)
}

// JSONInspector returns an Inspector that parses bodies with gjson.
func JSONInspector() Inspector {
	return jsonInspector{}
}

type jsonInspector struct{}

func (jsonInspector) Inspect(raw []byte) (View, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return jsonView{root: gjson.ParseBytes(raw)}, nil
}

// jsonView holds the parsed root so repeated queries against one body do not
// rescan it from the start.
type jsonView struct {
	root gjson.Result
}

func (v jsonView) HasField(path string) bool {
	return v.root.Get(path).Exists()
}

func (v jsonView) GetString(path string) (string, bool) {
	r := v.root.Get(path)
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}
