package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "resume.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"basics":{"name":"Jane Doe","email":"jane@x.com"},"work":[{"name":"Acme"}]}`), 0o644))

	r, err := LoadFile(p)
	require.NoError(t, err)
	basics, ok := r["basics"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", basics["name"])
	assert.Len(t, r["work"], 1)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "open resume")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name":`), 0o644))
	_, err = LoadFile(bad)
	assert.ErrorContains(t, err, "decode resume")

	_, err = Decode(strings.NewReader("null"))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`["not","an","object"]`))
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	r := Resume{"name": "Jane"}

	ctx := r.Context("")
	assert.NotContains(t, ctx, "stylesPath")
	assert.Equal(t, map[string]interface{}{"name": "Jane"}, ctx["resume"])

	ctx = r.Context("styles/temp.css")
	assert.Equal(t, "styles/temp.css", ctx["stylesPath"])
}

func TestValidateMap(t *testing.T) {
	schema := filepath.Join(t.TempDir(), "resume.schema.json")
	require.NoError(t, os.WriteFile(schema, []byte(`{
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string"}, "email": {"type": "string"}}
	}`), 0o644))

	assert.NoError(t, ValidateMap(map[string]interface{}{"name": "Jane"}, schema))

	err := ValidateMap(map[string]interface{}{"email": "jane@x.com"}, schema)
	assert.ErrorContains(t, err, "does not match resume.schema.json")
	assert.ErrorContains(t, err, "name is required")

	err = ValidateMap(map[string]interface{}{"name": 3.0}, schema)
	assert.Error(t, err)
}
