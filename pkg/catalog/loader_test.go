package catalog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
languages:
  - key: French
    short_name: French
    display: French
    aliases: [French, Francais]
  - key: Maori
    short_name: Maori
    display: Te Reo Māori
    aliases: [Maori]
stories:
  - name: Art
    titles:
      - language: French
        display: L’art
      - language: Maori
        display: Toi
`

const sampleTOML = `
[[languages]]
key = "French"
short_name = "French"
display = "French"
aliases = ["French", "Francais"]

[[languages]]
key = "Maori"
short_name = "Maori"
display = "Te Reo Māori"
aliases = ["Maori"]

[[stories]]
name = "Art"

  [[stories.titles]]
  language = "French"
  display = "L’art"

  [[stories.titles]]
  language = "Maori"
  display = "Toi"
`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"YAML", sampleYAML, FormatYAML},
		{"TOML", sampleTOML, FormatTOML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)

			l, ok := c.LookupLanguage("Francais")
			require.True(t, ok)
			assert.Equal(t, "French", l.Key)

			title, ok := c.LookupLocalizedTitle("Art", "Maori")
			require.True(t, ok)
			assert.Equal(t, "Toi", title)
		})
	}
}

func TestExportRoundTripsDefault(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Default().Export(&buf, format))

			c, err := Parse(buf.Bytes(), format)
			require.NoError(t, err)
			assert.Equal(t, Default().Languages(), c.Languages())
			assert.Equal(t, Default().Stories(), c.Stories())
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Len(t, c.Stories(), 10, "empty path should use the built-in catalog")

	path := filepath.Join(dir, "catalog.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	c, err = LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Stories(), 1)

	_, err = LoadFile(filepath.Join(dir, "catalog.json"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = LoadFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	out := filepath.Join(dir, "nested", "catalog.toml")
	require.NoError(t, Default().WriteFile(out))
	c, err = LoadFile(out)
	require.NoError(t, err)
	assert.Len(t, c.Languages(), 5)
}

type closeFailer struct {
	bytes.Buffer
	closed bool
}

func (c *closeFailer) Close() error {
	c.closed = true
	return errors.New("disk full")
}

func TestExportAndCloseReportsCloseError(t *testing.T) {
	w := &closeFailer{}
	err := Default().exportAndClose(w, FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, w.closed)
	assert.NotZero(t, w.Len())

	w = &closeFailer{}
	err = Default().exportAndClose(w, Format("json"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.True(t, w.closed)
}
