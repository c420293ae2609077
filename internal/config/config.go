package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Style strategies. Inject keeps the compiled CSS in memory and adds it to the
// page after the content is loaded; File writes it to TempPath and hands the
// template a stylesPath variable instead.
const (
	StyleModeInject = "inject"
	StyleModeFile   = "file"
	StyleModeNone   = "none"
)

// Rendering engines.
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

// Config holds everything a render run needs. Zero values are filled from
// Default.
type Config struct {
	Data     DataConfig     `yaml:"data" toml:"data"`
	Template TemplateConfig `yaml:"template" toml:"template"`
	Style    StyleConfig    `yaml:"style" toml:"style"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
	Browser  BrowserConfig  `yaml:"browser" toml:"browser"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

type DataConfig struct {
	Path string `yaml:"path" toml:"path"`
	// SchemaPath enables JSON-Schema validation of the résumé when set.
	SchemaPath string `yaml:"schema_path" toml:"schema_path"`
}

type TemplateConfig struct {
	Path     string       `yaml:"path" toml:"path"`
	Partials []PartialDir `yaml:"partials" toml:"partials"`
	// Compare picks the is helper form: "operator" for {{#is a "==" b}},
	// "strict" for {{#is a b}}.
	Compare string `yaml:"compare" toml:"compare"`
}

// PartialDir is one directory scanned for template fragments.
type PartialDir struct {
	Dir       string `yaml:"dir" toml:"dir"`
	Recursive bool   `yaml:"recursive" toml:"recursive"`
	// Extension filters files, e.g. ".hbs". Empty registers every file.
	Extension string `yaml:"extension" toml:"extension"`
	// Prefix is prepended to every fragment name, e.g. "sections/".
	Prefix string `yaml:"prefix" toml:"prefix"`
}

type StyleConfig struct {
	Path         string   `yaml:"path" toml:"path"`
	Mode         string   `yaml:"mode" toml:"mode"`
	OutputStyle  string   `yaml:"output_style" toml:"output_style"`
	TempPath     string   `yaml:"temp_path" toml:"temp_path"`
	IncludePaths []string `yaml:"include_paths" toml:"include_paths"`
}

type OutputConfig struct {
	PDFPath string `yaml:"pdf_path" toml:"pdf_path"`
	// HTMLPath, when set, receives a copy of the assembled HTML.
	HTMLPath string `yaml:"html_path" toml:"html_path"`
}

type BrowserConfig struct {
	Engine          string   `yaml:"engine" toml:"engine"`
	ChromePath      string   `yaml:"chrome_path" toml:"chrome_path"`
	Timeout         Duration `yaml:"timeout" toml:"timeout"`
	SettleDelay     Duration `yaml:"settle_delay" toml:"settle_delay"`
	PrintBackground bool     `yaml:"print_background" toml:"print_background"`
	WaitForFonts    bool     `yaml:"wait_for_fonts" toml:"wait_for_fonts"`
	// Attempts is how many times export is tried before the run fails.
	Attempts int `yaml:"attempts" toml:"attempts"`
}

type ServerConfig struct {
	Port            string `yaml:"port" toml:"port"`
	JobsDatabaseURL string `yaml:"jobs_database_url" toml:"jobs_database_url"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	JSON  bool   `yaml:"json" toml:"json"`
}

// Duration decodes "5s"-style strings from YAML and TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration of the latest script variant: partials
// from views/components and views/partials, SCSS compiled to a temporary file,
// and an HTML snapshot next to the PDF.
func Default() Config {
	return Config{
		Data: DataConfig{Path: filepath.Join("resume", "resume.json")},
		Template: TemplateConfig{
			Path: filepath.Join("views", "resume.hbs"),
			Partials: []PartialDir{
				{Dir: filepath.Join("views", "components")},
				{Dir: filepath.Join("views", "partials")},
			},
		},
		Style: StyleConfig{
			Path:        filepath.Join("styles", "main.scss"),
			Mode:        StyleModeFile,
			OutputStyle: "compressed",
			TempPath:    filepath.Join("styles", "temp.css"),
		},
		Output: OutputConfig{
			PDFPath:  filepath.Join("PDF", "resume.pdf"),
			HTMLPath: filepath.Join("html", "output.html"),
		},
		Browser: BrowserConfig{
			Engine:          EngineChromedp,
			Timeout:         Duration(60 * time.Second),
			PrintBackground: true,
			WaitForFonts:    true,
			Attempts:        1,
		},
		Server: ServerConfig{Port: "3000"},
		Log:    LogConfig{Level: "info"},
	}
}

// Variant returns the preset reproducing one of the four historical script
// variants. Unknown numbers fall back to Default.
func Variant(n int) Config {
	cfg := Default()
	switch n {
	case 1:
		cfg.Template.Path = "resumeTemplate.hbs"
		cfg.Template.Partials = []PartialDir{{Dir: "sections", Prefix: "sections/"}}
		cfg.Style = StyleConfig{
			Path: filepath.Join("CSS", "style.css"),
			Mode: StyleModeInject,
		}
		cfg.Output.HTMLPath = ""
	case 2:
		cfg.Template.Partials = []PartialDir{{Dir: "views", Recursive: true, Extension: ".hbs"}}
		cfg.Template.Compare = "strict"
		cfg.Style = StyleConfig{
			Path:        filepath.Join("styles", "main.scss"),
			Mode:        StyleModeInject,
			OutputStyle: "nested",
		}
		cfg.Output.HTMLPath = ""
	case 3:
		cfg.Template.Path = "resumeTemplate.hbs"
		cfg.Template.Partials = []PartialDir{{Dir: "sections"}}
	}
	return cfg
}

// Load starts from Default, overlays the file at path (YAML or TOML, chosen by
// extension) when path is non-empty, then applies environment overrides.
func Load(path string) (Config, error) {
	return LoadOnto(Default(), path)
}

// LoadOnto is Load with an explicit starting point, such as a Variant preset.
func LoadOnto(base Config, path string) (Config, error) {
	cfg := base
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			err = toml.Unmarshal(b, &cfg)
		case ".yaml", ".yml":
			err = yaml.Unmarshal(b, &cfg)
		default:
			return cfg, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
		}
		if err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CHROME_PATH"); v != "" {
		c.Browser.ChromePath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("JOBS_DATABASE_URL"); v != "" {
		c.Server.JobsDatabaseURL = v
	}
	if v := os.Getenv("RESUME_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.Data.Path == "" {
		return fmt.Errorf("data path is required")
	}
	if c.Template.Path == "" {
		return fmt.Errorf("template path is required")
	}
	if c.Output.PDFPath == "" {
		return fmt.Errorf("output pdf path is required")
	}
	for i, p := range c.Template.Partials {
		if p.Dir == "" {
			return fmt.Errorf("partials[%d]: dir is required", i)
		}
		if p.Extension != "" && !strings.HasPrefix(p.Extension, ".") {
			return fmt.Errorf("partials[%d]: extension %q must start with a dot", i, p.Extension)
		}
	}
	switch c.Template.Compare {
	case "", "operator", "strict":
	default:
		return fmt.Errorf("unknown compare mode %q", c.Template.Compare)
	}
	switch c.Style.Mode {
	case StyleModeNone:
	case StyleModeInject:
		if c.Style.Path == "" {
			return fmt.Errorf("style path is required for mode %q", c.Style.Mode)
		}
	case StyleModeFile:
		if c.Style.Path == "" || c.Style.TempPath == "" {
			return fmt.Errorf("style path and temp path are required for mode %q", c.Style.Mode)
		}
	default:
		return fmt.Errorf("unknown style mode %q", c.Style.Mode)
	}
	switch strings.ToLower(c.Style.OutputStyle) {
	case "", "nested", "expanded", "compact", "compressed":
	default:
		return fmt.Errorf("unknown style output %q", c.Style.OutputStyle)
	}
	switch c.Browser.Engine {
	case EngineChromedp, EngineRod:
	default:
		return fmt.Errorf("unknown browser engine %q", c.Browser.Engine)
	}
	if c.Browser.Timeout < 0 || c.Browser.SettleDelay < 0 {
		return fmt.Errorf("browser durations must not be negative")
	}
	if c.Browser.Attempts < 0 {
		return fmt.Errorf("browser attempts must not be negative")
	}
	return nil
}
