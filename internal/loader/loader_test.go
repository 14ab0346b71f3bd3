package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/config"
	"lawnorm/internal/domain"
	"lawnorm/internal/loader"
	"lawnorm/mocks"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func corpusDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "b.html", "<p>B</p>")
	writeFile(t, dir, "b.json", `{"place_name":" Springfield ","state_code":"il","citation":{"bluebook_citation":"Springfield, Ill."}}`)
	writeFile(t, dir, "a.html", "<p>A</p>")
	writeFile(t, dir, "a.json", `{"place_name":"Salem","state_code":"OR"}`)
	writeFile(t, dir, "c.html", "<p>C</p>")
	writeFile(t, dir, "notes.txt", "ignored")
	return dir
}

func TestDirLoader_ListPending(t *testing.T) {
	l := loader.NewDirLoader(corpusDir(t))

	ids, err := l.ListPending(context.Background(), domain.JurisdictionFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	ids, err = l.ListPending(context.Background(), domain.JurisdictionFilter{StateCode: "IL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestDirLoader_Fetch(t *testing.T) {
	l := loader.NewDirLoader(corpusDir(t))

	doc, err := l.Fetch(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "<p>B</p>", doc.RawMarkup)
	assert.Equal(t, "Springfield", doc.PlaceName)
	assert.Equal(t, "IL", doc.StateCode)
	assert.JSONEq(t, `{"bluebook_citation":"Springfield, Ill."}`, string(doc.CitationMetadata))

	doc, err = l.Fetch(context.Background(), "c")
	require.NoError(t, err)
	assert.Empty(t, doc.StateCode)
	assert.Nil(t, doc.CitationMetadata)
}

func TestDirLoader_FetchErrors(t *testing.T) {
	dir := corpusDir(t)
	writeFile(t, dir, "d.html", "<p>D</p>")
	writeFile(t, dir, "d.json", "{not json")
	l := loader.NewDirLoader(dir)

	_, err := l.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = l.Fetch(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = l.Fetch(context.Background(), "d")
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestDirLoader_Watch(t *testing.T) {
	dir := t.TempDir()
	l := loader.NewDirLoader(dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ids, _, err := l.Watch(ctx, 20*time.Millisecond, nil)
	require.NoError(t, err)

	writeFile(t, dir, "new-doc.html", "<p>fresh</p>")
	writeFile(t, dir, "new-doc.json", `{"state_code":"TX"}`)
	writeFile(t, dir, "readme.md", "ignored")

	select {
	case id := <-ids:
		assert.Equal(t, "new-doc", id)
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event")
	}

	cancel()
	for range ids {
		// drain until closed
	}
}

func TestObjectLoader(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	ctx := context.Background()
	storage.On("List", ctx, "corpus", "raw/").Return([]string{
		"raw/x.html", "raw/x.json", "raw/y.html", "raw/nested/z.html",
	}, nil)
	storage.On("Download", ctx, "corpus", "raw/x.html").Return([]byte("<p>X</p>"), nil)
	storage.On("Download", ctx, "corpus", "raw/x.json").Return([]byte(`{"place_name":"Austin","state_code":"TX"}`), nil)
	storage.On("Download", ctx, "corpus", "raw/y.json").Return(nil, domain.ErrNotFound)
	storage.On("Download", ctx, "corpus", "raw/missing.html").Return(nil, domain.ErrNotFound)

	l := loader.NewObjectLoader(storage, "corpus", "raw/")

	ids, err := l.ListPending(ctx, domain.JurisdictionFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids)

	ids, err = l.ListPending(ctx, domain.JurisdictionFilter{StateCode: "tx"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids)

	doc, err := l.Fetch(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "Austin", doc.PlaceName)

	_, err = l.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	storage.AssertNotCalled(t, "Download", mock.Anything, "corpus", "raw/missing.json")
}

func TestNew(t *testing.T) {
	l, err := loader.New(config.LoaderConfig{Kind: "dir", Root: "/tmp"}, nil, "")
	require.NoError(t, err)
	assert.IsType(t, &loader.DirLoader{}, l)

	_, err = loader.New(config.LoaderConfig{Kind: "s3"}, nil, "bucket")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = loader.New(config.LoaderConfig{Kind: "ftp"}, nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
