package mod

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonModList = `[
	{"name": "BetterBases", "version": "1.2.0", "compatibleWith": "1.93", "releaseDate": "2021-05-01"},
	{"name": "Clothing-Pack", "version": "2.0", "releaseDate": "2019-06-01T12:00:00Z"},
	{"name": "BetterBases", "version": "1.2.0", "compatibleWith": "1.93", "releaseDate": "2021-05-01"}
]`

const yamlModList = `
- name: BetterBases
  version: 1.2.0
  compatibleWith: "1.93"
  releaseDate: 2021-05-01
- name: Clothing-Pack
  version: "2.0"
  releaseDate: 2019-06-01T12:00:00Z
`

func TestReadFile(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		contents string
	}{
		{name: "json", path: "/mods/mods.json", contents: jsonModList},
		{name: "yaml", path: "/mods/mods.yaml", contents: yamlModList},
		{name: "yml", path: "/mods/mods.YML", contents: yamlModList},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, test.path, []byte(test.contents), 0644))

			mods, err := ReadFile(fs, test.path)
			require.NoError(t, err)
			require.Len(t, mods, 2)

			assert.Equal(t, "BetterBases", mods[0].Name)
			assert.Equal(t, "1.93", mods[0].ParsedCompatibleWith().String())
			assert.Equal(t, time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC), mods[0].ReleaseDate())

			assert.Equal(t, "Clothing-Pack", mods[1].Name)
			assert.Nil(t, mods[1].ParsedCompatibleWith())
			assert.Equal(t, time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC), mods[1].ReleaseDate())
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(afero.NewMemMapFs(), "/nope.json")
	assert.Error(t, err)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "bad json", input: `[{"name": `},
		{name: "missing release date", input: `[{"name": "A", "version": "1"}]`},
		{name: "bad release date", input: `[{"name": "A", "releaseDate": "someday"}]`},
		{name: "bad compatibleWith", input: `[{"name": "A", "compatibleWith": "tomorrow", "releaseDate": "2020-01-01"}]`},
		{name: "missing name", input: `[{"releaseDate": "2020-01-01"}]`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(test.input), JSONFormat)
			assert.Error(t, err)
		})
	}
}

func TestDecode_EmptyYAML(t *testing.T) {
	mods, err := Decode(strings.NewReader(""), YAMLFormat)
	require.NoError(t, err)
	assert.Empty(t, mods)
}
