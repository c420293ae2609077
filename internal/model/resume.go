package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Resume is the résumé record handed to the template. Its shape is whatever the
// JSON source contains (basics, work, education, skills, ...); the renderer
// never inspects it beyond what the template asks for.
type Resume map[string]interface{}

// LoadFile reads and decodes the résumé at path.
func LoadFile(path string) (Resume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open resume %s: %w", path, err)
	}
	defer f.Close()

	r, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode resume %s: %w", path, err)
	}
	return r, nil
}

// Decode reads a single JSON object from r.
func Decode(r io.Reader) (Resume, error) {
	var out Resume
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("resume must be a JSON object")
	}
	return out, nil
}

// Context is the value the top-level template is executed against.
func (r Resume) Context(stylesPath string) map[string]interface{} {
	ctx := map[string]interface{}{"resume": map[string]interface{}(r)}
	if stylesPath != "" {
		ctx["stylesPath"] = stylesPath
	}
	return ctx
}
