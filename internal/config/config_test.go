package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StyleModeFile, cfg.Style.Mode)
	assert.Len(t, cfg.Template.Partials, 2)
	assert.Equal(t, filepath.Join("PDF", "resume.pdf"), cfg.Output.PDFPath)
}

func TestVariants(t *testing.T) {
	v1 := Variant(1)
	require.NoError(t, v1.Validate())
	assert.Equal(t, "sections/", v1.Template.Partials[0].Prefix)
	assert.Equal(t, StyleModeInject, v1.Style.Mode)
	assert.Empty(t, v1.Output.HTMLPath)

	v2 := Variant(2)
	require.NoError(t, v2.Validate())
	assert.True(t, v2.Template.Partials[0].Recursive)
	assert.Equal(t, ".hbs", v2.Template.Partials[0].Extension)
	assert.Equal(t, "strict", v2.Template.Compare)

	v3 := Variant(3)
	require.NoError(t, v3.Validate())
	assert.Equal(t, StyleModeFile, v3.Style.Mode)
	assert.Equal(t, "resumeTemplate.hbs", v3.Template.Path)

	assert.Equal(t, Default(), Variant(4))
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("CHROME_PATH", "")
	p := writeFile(t, "resume.yaml", `
data:
  path: me.json
style:
  mode: inject
  output_style: expanded
browser:
  engine: rod
  timeout: 15s
  settle_delay: 250ms
template:
  partials:
    - dir: parts
      recursive: true
      extension: .hbs
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "me.json", cfg.Data.Path)
	assert.Equal(t, StyleModeInject, cfg.Style.Mode)
	assert.Equal(t, EngineRod, cfg.Browser.Engine)
	assert.Equal(t, 15*time.Second, cfg.Browser.Timeout.Std())
	assert.Equal(t, 250*time.Millisecond, cfg.Browser.SettleDelay.Std())
	require.Len(t, cfg.Template.Partials, 1)
	assert.True(t, cfg.Template.Partials[0].Recursive)
	// untouched keys keep their defaults
	assert.Equal(t, filepath.Join("views", "resume.hbs"), cfg.Template.Path)
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, "resume.toml", `
[output]
pdf_path = "out/cv.pdf"

[browser]
timeout = "2m"
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "out/cv.pdf", cfg.Output.PDFPath)
	assert.Equal(t, 2*time.Minute, cfg.Browser.Timeout.Std())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "cfg.ini", "a=b"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(writeFile(t, "bad.yaml", "browser:\n  timeout: soon\n"))
	assert.ErrorContains(t, err, "invalid duration")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHROME_PATH", "/opt/chrome")
	t.Setenv("PORT", "8081")
	t.Setenv("JOBS_DATABASE_URL", "postgres://x")
	t.Setenv("RESUME_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/chrome", cfg.Browser.ChromePath)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "postgres://x", cfg.Server.JobsDatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"no data":         func(c *Config) { c.Data.Path = "" },
		"no template":     func(c *Config) { c.Template.Path = "" },
		"no pdf":          func(c *Config) { c.Output.PDFPath = "" },
		"bad mode":        func(c *Config) { c.Style.Mode = "link" },
		"file no temp":    func(c *Config) { c.Style.TempPath = "" },
		"bad output":      func(c *Config) { c.Style.OutputStyle = "tiny" },
		"bad engine":      func(c *Config) { c.Browser.Engine = "webkit" },
		"partial no dir":  func(c *Config) { c.Template.Partials[0].Dir = "" },
		"ext without dot": func(c *Config) { c.Template.Partials[0].Extension = "hbs" },
		"negative":        func(c *Config) { c.Browser.SettleDelay = Duration(-time.Second) },
		"bad compare":     func(c *Config) { c.Template.Compare = "fuzzy" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}

	cfg := Default()
	cfg.Style = StyleConfig{Mode: StyleModeNone}
	assert.NoError(t, cfg.Validate())
}
