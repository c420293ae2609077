package pdfinfo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunapapa-finland/JSON-resume/internal/pdfinfo/pdftest"
)

func TestInspectA4(t *testing.T) {
	info, err := Inspect(pdftest.A4())
	require.NoError(t, err)
	assert.Equal(t, 1, info.Pages)
	assert.InDelta(t, 595.28, info.Width, 0.01)
	assert.InDelta(t, 841.89, info.Height, 0.01)
	assert.True(t, info.IsA4())
	assert.Equal(t, "1 page(s), 595.28x841.89pt", info.String())
}

func TestInspectLetter(t *testing.T) {
	info, err := Inspect(pdftest.Blank(3, 612, 792))
	require.NoError(t, err)
	assert.Equal(t, 3, info.Pages)
	assert.False(t, info.IsA4())
}

func TestInspectChromeA4(t *testing.T) {
	// 8.27in x 11.69in as printed by Chrome
	info, err := Inspect(pdftest.Blank(1, 595.44, 841.68))
	require.NoError(t, err)
	assert.True(t, info.IsA4())
}

func TestInspectRejects(t *testing.T) {
	_, err := Inspect([]byte("<html></html>"))
	assert.True(t, errors.Is(err, ErrNotPDF))

	_, err = Inspect(nil)
	assert.True(t, errors.Is(err, ErrNotPDF))

	_, err = Inspect([]byte("%PDF-1.4\ngarbage"))
	assert.Error(t, err)
}
