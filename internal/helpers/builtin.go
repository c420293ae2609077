package helpers

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mailgun/raymond/v2"
	"github.com/yuin/goldmark"
	"golang.org/x/net/publicsuffix"

	"github.com/lunapapa-finland/JSON-resume/internal/address"
	"github.com/lunapapa-finland/JSON-resume/internal/style"
)

// Comparison flavours of the is helper.
const (
	// CompareOperator is is(a, op, b): "==" loose equality, "!=" its negation.
	CompareOperator = "operator"
	// CompareStrict is is(a, b) with strict equality.
	CompareStrict = "strict"
)

// Options tunes the default helper set.
type Options struct {
	// Styles compiles stylesheets pulled in by includeCSS. Nil reads files as
	// plain CSS.
	Styles *style.Resolver
	// Compare selects the is helper flavour. Empty means CompareOperator.
	Compare string
}

// Default returns a registry with every résumé helper.
func Default(opts Options) (*Registry, error) {
	r := NewRegistry()
	is := interface{}(Is)
	switch opts.Compare {
	case "", CompareOperator:
	case CompareStrict:
		is = IsStrict
	default:
		return nil, fmt.Errorf("unknown compare mode %q", opts.Compare)
	}

	for name, fn := range map[string]interface{}{
		"lowercase":      Lowercase,
		"removeProtocol": RemoveProtocol,
		"concat":         Concat,
		"is":             is,
		"formatAddress":  FormatAddress,
		"formatDate":     FormatDate,
		"includeCSS":     IncludeCSS(opts.Styles),
		"urlLabel":       URLLabel,
		"markdown":       Markdown,
	} {
		if err := r.Register(name, fn); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func Lowercase(s interface{}) string {
	return strings.ToLower(raymond.Str(s))
}

var protocolRe = regexp.MustCompile(`.*?://`)

// RemoveProtocol drops every "scheme://" run from u.
func RemoveProtocol(u interface{}) string {
	return protocolRe.ReplaceAllString(raymond.Str(u), "")
}

// Concat joins its scalar arguments. Maps, lists and missing values are
// skipped.
func Concat(args ...interface{}) string {
	var b strings.Builder
	for _, a := range args {
		if isObject(a) {
			continue
		}
		b.WriteString(raymond.Str(a))
	}
	return b.String()
}

// Is renders the block when a op b holds and the else branch otherwise.
func Is(a, op, b interface{}, options *raymond.Options) string {
	var ok bool
	switch raymond.Str(op) {
	case "==":
		ok = looseEqual(a, b)
	case "!=":
		ok = !looseEqual(a, b)
	}
	if ok {
		return options.Fn()
	}
	return options.Inverse()
}

// IsStrict is the two-operand form: the block renders when a and b are the
// same kind of value and equal.
func IsStrict(a, b interface{}, options *raymond.Options) string {
	if strictEqual(a, b) {
		return options.Fn()
	}
	return options.Inverse()
}

// FormatAddress lays out a location block for its country, one line per
// <br/>.
func FormatAddress(street, city, region, postalCode, countryCode interface{}) raymond.SafeString {
	lines := address.Format(address.Parse(
		raymond.Str(street),
		raymond.Str(city),
		raymond.Str(region),
		raymond.Str(postalCode),
		raymond.Str(countryCode),
	))
	for i, l := range lines {
		lines[i] = raymond.Escape(l)
	}
	return raymond.SafeString(strings.Join(lines, "<br/>"))
}

// now is replaced in tests.
var now = time.Now

// FormatDate renders a date as MM/YYYY. A missing value is the current month,
// which is how an open-ended endDate reads; unparsable text, the empty string
// included, renders "Invalid date".
func FormatDate(date interface{}) string {
	if date == nil {
		return now().Format("01/2006")
	}
	s := strings.TrimSpace(raymond.Str(date))
	if s == "" {
		return "Invalid date"
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return "Invalid date"
	}
	return t.Format("01/2006")
}

// IncludeCSS returns a helper that inlines a stylesheet file as a <style>
// element. Read and compile failures abort the render.
func IncludeCSS(styles *style.Resolver) func(interface{}) raymond.SafeString {
	if styles == nil {
		styles = &style.Resolver{}
	}
	return func(path interface{}) raymond.SafeString {
		css, err := styles.Compile(raymond.Str(path))
		if err != nil {
			// raymond turns helper panics into Exec errors.
			panic(fmt.Errorf("includeCSS: %w", err))
		}
		return raymond.SafeString("<style>" + css + "</style>")
	}
}

// URLLabel shortens a link to its registrable domain, "https://www.coursera.org/x"
// becoming "coursera.org".
func URLLabel(u interface{}) string {
	s := strings.TrimSpace(raymond.Str(u))
	if s == "" {
		return ""
	}
	candidate := s
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return s
	}
	host := parsed.Hostname()
	if host == "" {
		return s
	}
	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return strings.TrimPrefix(etld, "www.")
	}
	return strings.TrimPrefix(host, "www.")
}

var md = goldmark.New()

// Markdown renders text as HTML. A single paragraph is unwrapped so the
// result can sit inside an existing element.
func Markdown(text interface{}) raymond.SafeString {
	var buf bytes.Buffer
	if err := md.Convert([]byte(raymond.Str(text)), &buf); err != nil {
		panic(fmt.Errorf("markdown: %w", err))
	}
	out := strings.TrimSpace(buf.String())
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") &&
		strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return raymond.SafeString(out)
}
