package model

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateMap validates a résumé against the JSON Schema at schemaPath.
func ValidateMap(m map[string]interface{}, schemaPath string) error {
	abs, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("schema path %s: %w", schemaPath, err)
	}
	// relative $refs inside the schema resolve against its own location
	schema := gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(abs))

	res, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(m))
	if err != nil {
		return fmt.Errorf("load schema %s: %w", schemaPath, err)
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		problems = append(problems, e.Field()+": "+e.Description())
	}
	return fmt.Errorf("resume does not match %s: %s", filepath.Base(schemaPath), strings.Join(problems, "; "))
}
