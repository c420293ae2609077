package helpers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mailgun/raymond/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lunapapa-finland/JSON-resume/internal/style"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func render(t *testing.T, reg *Registry, src string, ctx interface{}) (string, error) {
	t.Helper()
	tpl, err := raymond.Parse(src)
	require.NoError(t, err)
	tpl.RegisterHelpers(reg.Funcs())
	return tpl.Exec(ctx)
}

func defaults(t *testing.T) *Registry {
	t.Helper()
	reg, err := Default(Options{})
	require.NoError(t, err)
	return reg
}

func TestLowercase(t *testing.T) {
	assert.Equal(t, "abc", Lowercase("ABC"))
	assert.Equal(t, "", Lowercase(nil))
}

func TestRemoveProtocol(t *testing.T) {
	assert.Equal(t, "example.com", RemoveProtocol("https://example.com"))
	assert.Equal(t, "github.com/jane", RemoveProtocol("http://github.com/jane"))
	assert.Equal(t, "example.com", RemoveProtocol("example.com"))
	// non-greedy and global
	assert.Equal(t, "b.com", RemoveProtocol("https://a.comftp://b.com"))
}

func TestConcat(t *testing.T) {
	assert.Equal(t, "a1b", Concat("a", 1, map[string]interface{}{"x": 1}, "b"))
	assert.Equal(t, "xtrue2.5", Concat("x", nil, []interface{}{"skip"}, true, 2.5))
	assert.Equal(t, "", Concat())
}

func TestIs(t *testing.T) {
	reg := defaults(t)
	src := `{{#is a "==" b}}yes{{else}}no{{/is}}`
	cases := []struct {
		a, b interface{}
		want string
	}{
		{2, 2, "yes"},
		{2, 3, "no"},
		{"2", 2, "yes"},
		{float64(2), 2, "yes"},
		{"x", "x", "yes"},
		{"1", "01", "no"},
		{nil, nil, "yes"},
		{nil, 0, "no"},
		{true, 1, "yes"},
		{map[string]interface{}{}, map[string]interface{}{}, "no"},
	}
	for _, c := range cases {
		out, err := render(t, reg, src, map[string]interface{}{"a": c.a, "b": c.b})
		require.NoError(t, err)
		assert.Equal(t, c.want, out, "%v == %v", c.a, c.b)
	}

	out, err := render(t, reg, `{{#is 1 "!=" 2}}diff{{else}}same{{/is}}`, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "diff", out)

	out, err = render(t, reg, `{{#is 1 "<" 2}}lt{{else}}unsupported{{/is}}`, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "unsupported", out)
}

func TestIsStrict(t *testing.T) {
	reg, err := Default(Options{Compare: CompareStrict})
	require.NoError(t, err)

	src := `{{#is a b}}yes{{else}}no{{/is}}`
	cases := []struct {
		a, b interface{}
		want string
	}{
		{"work", "work", "yes"},
		{"2", 2, "no"},
		{float64(2), 2, "yes"},
		{true, 1, "no"},
	}
	for _, c := range cases {
		out, err := render(t, reg, src, map[string]interface{}{"a": c.a, "b": c.b})
		require.NoError(t, err)
		assert.Equal(t, c.want, out, "%v === %v", c.a, c.b)
	}

	_, err = Default(Options{Compare: "fuzzy"})
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "05/2021", FormatDate("2021-05-01"))
	assert.Equal(t, "12/2019", FormatDate("2019-12-31T10:00:00Z"))
	assert.Equal(t, "Invalid date", FormatDate(""))
	assert.Equal(t, "Invalid date", FormatDate("not a date"))
}

func TestFormatDateMissingIsCurrentMonth(t *testing.T) {
	defer func(f func() time.Time) { now = f }(now)
	now = func() time.Time { return time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC) }

	assert.Equal(t, "03/2024", FormatDate(nil))

	reg := defaults(t)
	out, err := render(t, reg, `{{formatDate job.startDate}} - {{formatDate job.endDate}}`, map[string]interface{}{
		"job": map[string]interface{}{"startDate": "2021-05-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, "05/2021 - 03/2024", out)
}

func TestFormatAddress(t *testing.T) {
	got := FormatAddress("Calle Mayor 1", "Madrid", nil, "28013", "ES")
	assert.True(t, strings.EqualFold("Calle Mayor 1<br/>28013 Madrid", string(got)), got)

	got = FormatAddress("Hauptstraße <1>", "Berlin", nil, "10117", "DE")
	assert.True(t, strings.EqualFold("Hauptstraße &lt;1&gt;<br/>10117 Berlin", string(got)), got)
}

func TestIncludeCSS(t *testing.T) {
	dir := t.TempDir()
	css := filepath.Join(dir, "style.css")
	require.NoError(t, os.WriteFile(css, []byte("p{margin:0}"), 0o644))
	scss := filepath.Join(dir, "main.scss")
	require.NoError(t, os.WriteFile(scss, []byte("$c: red;\nh1 { color: $c; }\n"), 0o644))

	fn := IncludeCSS(nil)
	assert.Equal(t, raymond.SafeString("<style>p{margin:0}</style>"), fn(css))

	fn = IncludeCSS(&style.Resolver{OutputStyle: "compressed"})
	assert.Contains(t, string(fn(scss)), "<style>h1{color:red}")

	reg := defaults(t)
	out, err := render(t, reg, `<head>{{includeCSS path}}</head>`, map[string]string{"path": css})
	require.NoError(t, err)
	assert.Equal(t, "<head><style>p{margin:0}</style></head>", out)

	_, err = render(t, reg, `{{includeCSS path}}`, map[string]string{"path": filepath.Join(dir, "none.css")})
	assert.Error(t, err)
}

func TestURLLabel(t *testing.T) {
	assert.Equal(t, "coursera.org", URLLabel("https://www.coursera.org/verify/ABC"))
	assert.Equal(t, "example.co.uk", URLLabel("blog.example.co.uk/post"))
	assert.Equal(t, "localhost", URLLabel("http://localhost:8080"))
	assert.Equal(t, "", URLLabel(nil))
}

func TestMarkdown(t *testing.T) {
	assert.Equal(t, raymond.SafeString("<strong>Led</strong> a team"), Markdown("**Led** a team"))
	multi := string(Markdown("one\n\ntwo"))
	assert.Equal(t, "<p>one</p>\n<p>two</p>", multi)
}

func TestDefaultTemplateHasNoPlaceholders(t *testing.T) {
	reg := defaults(t)
	src := `{{lowercase name}}|{{removeProtocol url}}|{{concat "a" n obj "b"}}|` +
		`{{#is n "==" 1}}one{{/is}}|{{formatAddress street city region zip cc}}|` +
		`{{formatDate start}}|{{urlLabel url}}|{{markdown summary}}`
	out, err := render(t, reg, src, map[string]interface{}{
		"name": "JANE", "url": "https://www.example.com", "n": float64(1),
		"obj": map[string]interface{}{"k": "v"}, "street": "1 Main St", "city": "Berlin",
		"region": "", "zip": "10117", "cc": "DE", "start": "2020-01-15", "summary": "*hi*",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane|www.example.com|a1b|one|1 Main St<br/>10117 Berlin|01/2020|example.com|<em>hi</em>", out)
	assert.NotContains(t, out, "{{")
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("upper", func(s interface{}) string { return "" }))
	require.NoError(t, reg.Register("block", func(a interface{}, o *raymond.Options) string { return o.Fn() }))
	require.NoError(t, reg.Register("join", func(a ...interface{}) string { return "" }))

	bad := map[string]interface{}{
		"":        Lowercase,
		"if":      Lowercase,
		"upper":   Lowercase,
		"notFunc": "x",
		"twoOut":  func(interface{}) (string, error) { return "", nil },
		"intOut":  func(interface{}) int { return 0 },
		"typedIn": func(s string) string { return s },
		"typedVa": func(s ...string) string { return "" },
		"noOut":   func(interface{}) {},
	}
	for name, fn := range bad {
		err := reg.Register(name, fn)
		assert.True(t, errors.Is(err, ErrInvalidHelper), "%q: %v", name, err)
	}
	assert.Equal(t, []string{"block", "join", "upper"}, reg.Names())
	assert.Equal(t, 3, reg.Len())

	_, ok := reg.Lookup("join")
	assert.True(t, ok)
}

func TestDefaultNames(t *testing.T) {
	assert.Equal(t, []string{
		"concat", "formatAddress", "formatDate", "includeCSS", "is",
		"lowercase", "markdown", "removeProtocol", "urlLabel",
	}, defaults(t).Names())
}
