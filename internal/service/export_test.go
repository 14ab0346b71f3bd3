package service_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lawnorm/internal/domain"
	"lawnorm/internal/port"
	"lawnorm/internal/service"
	"lawnorm/mocks"
)

func exportDocs() []domain.NormalizedDocument {
	return []domain.NormalizedDocument{
		{
			DocumentID: "a", DocumentType: domain.DocumentTypeCode,
			Jurisdiction: domain.Jurisdiction{StateCode: "IL", PlaceName: "Springfield"},
			Sections:     []domain.Section{{SectionID: "a-s001", SectionText: "One."}, {SectionID: "a-s002", SectionText: "Two."}},
		},
		{
			DocumentID: "b", DocumentType: domain.DocumentTypeOrdinance,
			Jurisdiction: domain.Jurisdiction{StateCode: "IL", PlaceName: "Springfield"},
			Sections:     []domain.Section{{SectionID: "b-s001", SectionText: "Three."}},
		},
		{
			DocumentID: "c", DocumentType: domain.DocumentTypeCode,
			Jurisdiction: domain.Jurisdiction{StateCode: "OR", PlaceName: "Salem"},
			Sections:     []domain.Section{{SectionID: "c-s001", SectionText: "Four."}},
		},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestExport_JSONLByType(t *testing.T) {
	repo := new(mocks.MockNormalizedDocumentRepo)
	repo.On("Iterate", mock.Anything, mock.Anything).Return(exportDocs(), nil)
	dir := t.TempDir()

	files, err := service.NewExportService(repo, nil, nil).Export(context.Background(), service.ExportOptions{Dir: dir})
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "Code", files[0].Group)
	assert.Equal(t, 2, files[0].Documents)
	assert.True(t, strings.HasPrefix(filepath.Base(files[0].Path), "Code_"))
	assert.True(t, strings.HasSuffix(files[0].Path, ".jsonl"))

	lines := readLines(t, files[0].Path)
	require.Len(t, lines, 2)
	var doc domain.NormalizedDocument
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, "c", doc.DocumentID)

	assert.Equal(t, "Ordinance", files[1].Group)
}

func TestExport_CSVByJurisdiction(t *testing.T) {
	repo := new(mocks.MockNormalizedDocumentRepo)
	repo.On("Iterate", mock.Anything, mock.Anything).Return(exportDocs(), nil)
	dir := t.TempDir()

	files, err := service.NewExportService(repo, nil, nil).Export(context.Background(), service.ExportOptions{
		Dir: dir, GroupBy: service.GroupByJurisdiction, Format: service.FormatCSV,
	})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "IL_Springfield", files[0].Group)
	assert.Equal(t, 2, files[0].Documents)

	lines := readLines(t, files[0].Path)
	// BOM-prefixed header plus one row per section.
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "\ufeffDocument ID"))
}

func TestExport_UploadsToObjectStorage(t *testing.T) {
	repo := new(mocks.MockNormalizedDocumentRepo)
	repo.On("Iterate", mock.Anything, mock.Anything).Return(exportDocs()[:1], nil)
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "corpus" && strings.HasPrefix(in.Key, "exports/Code_") && in.Size > 0
	})).Return(&port.UploadOutput{Location: "s3://corpus/exports/code.jsonl"}, nil)

	files, err := service.NewExportService(repo, storage, nil).Export(context.Background(), service.ExportOptions{
		Bucket: "corpus", Prefix: "exports/",
	})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "s3://corpus/exports/code.jsonl", files[0].Location)
	storage.AssertExpectations(t)
}

func TestExport_PresignsUploadedFiles(t *testing.T) {
	repo := new(mocks.MockNormalizedDocumentRepo)
	repo.On("Iterate", mock.Anything, mock.Anything).Return(exportDocs()[:1], nil)
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{Location: "s3://corpus/exports/code.jsonl"}, nil)
	storage.On("GetPresignedURL", mock.Anything, "corpus", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "exports/Code_")
	}), int64(900)).Return("https://signed.example/code", nil)

	files, err := service.NewExportService(repo, storage, nil).Export(context.Background(), service.ExportOptions{
		Bucket: "corpus", Prefix: "exports/", LinkExpiry: 900,
	})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "https://signed.example/code", files[0].DownloadURL)
	storage.AssertExpectations(t)
}

func TestExport_RejectsUnknownOptions(t *testing.T) {
	svc := service.NewExportService(new(mocks.MockNormalizedDocumentRepo), nil, nil)

	_, err := svc.Export(context.Background(), service.ExportOptions{GroupBy: "county"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Export(context.Background(), service.ExportOptions{Format: "xml"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Export(context.Background(), service.ExportOptions{Bucket: "corpus"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
