package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/elabql/internal/qlast"
)

func TestLoadSources_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.edgeql", "select Group")
	writeFile(t, dir, "a.cue", allUsersTree)
	writeFile(t, dir, "sub/c.edgeql", "select User")
	writeFile(t, dir, "README.md", "ignored")

	srcs, errs := LoadSources([]string{dir}, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, srcs, 3)

	assert.Equal(t, filepath.Join(dir, "a.cue"), srcs[0].Name)
	assert.IsType(t, &qlast.SelectQuery{}, srcs[0].Node)
	assert.Equal(t, allUsersTree, srcs[0].Text)

	assert.Equal(t, filepath.Join(dir, "b.edgeql"), srcs[1].Name)
	assert.Equal(t, "select Group", srcs[1].Text)
	assert.Nil(t, srcs[1].Node, "query text is parsed by the engine")

	assert.Equal(t, filepath.Join(dir, "sub", "c.edgeql"), srcs[2].Name)
}

func TestLoadSources_SingleFileAnyExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "query.txt", "select User")

	srcs, errs := LoadSources([]string{path}, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, srcs, 1)
	assert.Equal(t, "select User", srcs[0].Text)
}

func TestLoadSources_FailFast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_bad.json", `{"kind": "Nope"}`)
	writeFile(t, dir, "b_bad.cue", `kind: 42`)

	_, errs := LoadSources([]string{dir}, LoadModeFailFast)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeDecode, loadErr.Code)
	assert.Equal(t, filepath.Join(dir, "a_bad.json"), loadErr.Path)
}

func TestLoadSources_CollectAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_bad.json", `{"kind": "Nope"}`)
	writeFile(t, dir, "b_bad.cue", `kind: 42`)
	writeFile(t, dir, "c.edgeql", "select User")

	srcs, errs := LoadSources([]string{dir, filepath.Join(dir, "missing")}, LoadModeCollectAll)
	assert.Len(t, srcs, 1)
	require.Len(t, errs, 3)

	var loadErr *LoadError
	require.ErrorAs(t, errs[2], &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadSources_NoFiles(t *testing.T) {
	_, errs := LoadSources([]string{t.TempDir()}, LoadModeCollectAll)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), ErrCodeNoFiles)
}

func TestInlineSources(t *testing.T) {
	srcs := InlineSources([]string{"select User", "select Group"})
	require.Len(t, srcs, 2)
	assert.Equal(t, "inline[1]", srcs[0].Name)
	assert.Equal(t, "select Group", srcs[1].Text)
}

func TestLoadError(t *testing.T) {
	assert.Equal(t, "q.edgeql: E004: denied", (&LoadError{Code: ErrCodeReadFailed, Message: "denied", Path: "q.edgeql"}).Error())
	assert.Equal(t, "E003: empty", (&LoadError{Code: ErrCodeNoFiles, Message: "empty"}).Error())
}
