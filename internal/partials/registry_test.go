package partials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestName(t *testing.T) {
	assert.Equal(t, "header", Name("header.hbs"))
	assert.Equal(t, "header", Name("/views/partials/header.hbs"))
	assert.Equal(t, "work.section", Name("work.section.hbs"))
	assert.Equal(t, "README", Name("README"))
}

func TestRegisterDirUniqueNames(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"header", "work", "education", "skills"} {
		write(t, filepath.Join(dir, n+".hbs"), "<section>"+n+"</section>")
	}

	r := NewRegistry(nil)
	n, err := r.RegisterDir(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, []string{"education", "header", "skills", "work"}, r.Names())

	src, ok := r.Lookup("work")
	require.True(t, ok)
	assert.Equal(t, "<section>work</section>", src)
	assert.Equal(t, filepath.Join(dir, "work.hbs"), r.Path("work"))
}

func TestRegisterDirCollisionLaterWins(t *testing.T) {
	root := t.TempDir()
	components := filepath.Join(root, "components")
	parts := filepath.Join(root, "partials")
	write(t, filepath.Join(components, "item.hbs"), "from components")
	write(t, filepath.Join(parts, "item.hbs"), "from partials")

	core, logs := observer.New(zap.WarnLevel)
	r := NewRegistry(zap.New(core))
	_, err := r.RegisterDir(components, Options{})
	require.NoError(t, err)
	_, err = r.RegisterDir(parts, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, r.Len())
	src, _ := r.Lookup("item")
	assert.Equal(t, "from partials", src)

	require.Equal(t, 1, logs.FilterMessage("partial overwritten").Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, filepath.Join(components, "item.hbs"), fields["previous"])
}

func TestRegisterDirRecursiveWithExtension(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "resume.hbs"), "main")
	write(t, filepath.Join(dir, "partials", "header.hbs"), "header")
	write(t, filepath.Join(dir, "partials", "deep", "footer.hbs"), "footer")
	write(t, filepath.Join(dir, "partials", "notes.txt"), "ignored")

	flat := NewRegistry(nil)
	n, err := flat.RegisterDir(dir, Options{Extension: ".hbs"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"resume"}, flat.Names())

	deep := NewRegistry(nil)
	n, err = deep.RegisterDir(dir, Options{Recursive: true, Extension: ".hbs"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"footer", "header", "resume"}, deep.Names())
}

func TestRegisterDirPrefix(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "about.hbs"), "about")
	write(t, filepath.Join(dir, "contact.html"), "contact")

	r := NewRegistry(nil)
	_, err := r.RegisterDir(dir, Options{Prefix: "sections/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sections/about", "sections/contact"}, r.Names())
	assert.Equal(t, map[string]string{"sections/about": "about", "sections/contact": "contact"}, r.Sources())
}

func TestRegisterDirMissing(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.RegisterDir(filepath.Join(t.TempDir(), "nope"), Options{})
	assert.ErrorContains(t, err, "read partials dir")
}
