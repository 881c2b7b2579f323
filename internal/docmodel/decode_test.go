package docmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_KeepsAbsentAndEmptyApart(t *testing.T) {
	f, err := Decode([]byte(`
title: Foo
warnings: []
notes:
brief: null
params:
  - arg_name: x
    direction: in
  - arg_name: y
    description: the y value
`))
	require.NoError(t, err)

	doc := f.Doc
	require.NotNil(t, doc.Title)
	assert.Equal(t, "Foo", *doc.Title)
	assert.Nil(t, doc.Brief)
	assert.Nil(t, doc.Notes, "empty value means absent")
	assert.Nil(t, doc.Returns)
	require.NotNil(t, doc.Warnings, "[] means present")
	assert.Empty(t, *doc.Warnings)

	require.NotNil(t, doc.Params)
	params := *doc.Params
	require.Len(t, params, 2)
	assert.Equal(t, "x", params[0].ArgName)
	require.NotNil(t, params[0].Direction)
	assert.Equal(t, "in", *params[0].Direction)
	assert.Nil(t, params[0].Description)
	assert.Nil(t, params[1].Direction)
	assert.Equal(t, "the y value", *params[1].Description)
}

func TestDecode_WrappedFile(t *testing.T) {
	f, err := Decode([]byte(`{"id": "net/socket_open", "doc": {"brief": "Opens a socket.", "deprecated": {}}}`))
	require.NoError(t, err)

	assert.Equal(t, "net/socket_open", f.ID)
	require.NotNil(t, f.Doc.Brief)
	assert.Equal(t, "Opens a socket.", *f.Doc.Brief)
	require.NotNil(t, f.Doc.Deprecated)
	assert.Nil(t, f.Doc.Deprecated.Message)
}

func TestDecode_EmptyDocumentIsEmptyModel(t *testing.T) {
	f, err := Decode([]byte("\n"))
	require.NoError(t, err)
	assert.Equal(t, Doc{}, f.Doc)
	assert.Empty(t, f.ID)
}

func TestDecode_RejectsWrongShape(t *testing.T) {
	cases := map[string]string{
		"string where list expected": "warnings: oops\n",
		"list where string expected": "title: [a, b]\n",
		"unknown section":            "summary: nope\n",
		"param without name":         "params:\n  - direction: in\n",
		"record entry":               "notes:\n  - {a: b}\n",
		"null entry":                 "notes:\n  - \n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(src))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchema)
		})
	}
}

func TestDecode_ScalarsAreText(t *testing.T) {
	f, err := Decode([]byte(`
title: 404
brief: 1.0
notes: [true, 0x1F]
params:
  - arg_name: 2
    direction: in
`))
	require.NoError(t, err)

	doc := f.Doc
	assert.Equal(t, "404", *doc.Title)
	assert.Equal(t, "1.0", *doc.Brief)
	assert.Equal(t, []string{"true", "0x1F"}, *doc.Notes)
	assert.Equal(t, "2", (*doc.Params)[0].ArgName)
}

func TestDecode_RejectsMalformedYAML(t *testing.T) {
	_, err := Decode([]byte("title: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse model")
}

func TestLoadFile_PrefixesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("returns: 3\n"), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestHash(t *testing.T) {
	a := &Doc{Title: Some("Foo")}
	b := &Doc{Title: Some("Foo")}
	assert.Equal(t, Hash(a), Hash(b))

	absent := &Doc{}
	empty := &Doc{Notes: Some([]string{})}
	assert.NotEqual(t, Hash(absent), Hash(empty))
	assert.Equal(t, Hash(nil), Hash(absent))
}
