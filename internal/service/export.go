package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"lawnorm/internal/csvexport"
	"lawnorm/internal/domain"
	"lawnorm/internal/port"
)

// Export groupings and formats.
const (
	GroupByType         = "type"
	GroupByJurisdiction = "jurisdiction"

	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

// ExportOptions selects how stored documents are written out. When Bucket
// is set the files are uploaded under Prefix after being written to Dir, and
// a positive LinkExpiry (seconds) adds a presigned download link per file.
type ExportOptions struct {
	GroupBy    string
	Format     string
	Dir        string
	Bucket     string
	Prefix     string
	LinkExpiry int64
}

// ExportFile describes one written group file.
type ExportFile struct {
	Group       string `json:"group"`
	Path        string `json:"path"`
	Location    string `json:"location,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Documents   int    `json:"documents"`
}

// ExportService writes normalized documents grouped into files.
type ExportService interface {
	Export(ctx context.Context, opts ExportOptions) ([]ExportFile, error)
}

type exportService struct {
	output  port.NormalizedDocumentRepository
	storage port.ObjectStorage
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService creates an ExportService. storage may be nil when only
// local exports are used.
func NewExportService(output port.NormalizedDocumentRepository, storage port.ObjectStorage, logger *zap.Logger) ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &exportService{output: output, storage: storage, logger: logger, now: time.Now}
}

// groupFile is an open output file for one group.
type groupFile struct {
	file *os.File
	buf  *bufio.Writer
	csv  *csvexport.Writer
	info ExportFile
}

func (g *groupFile) write(doc *domain.NormalizedDocument) error {
	g.info.Documents++
	if g.csv != nil {
		return g.csv.WriteDocument(doc)
	}
	line, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := g.buf.Write(line); err != nil {
		return err
	}
	return g.buf.WriteByte('\n')
}

func (g *groupFile) close() error {
	if g.csv != nil {
		g.csv.Flush()
		if err := g.csv.Error(); err != nil {
			_ = g.file.Close()
			return err
		}
	}
	if err := g.buf.Flush(); err != nil {
		_ = g.file.Close()
		return err
	}
	return g.file.Close()
}

func (s *exportService) Export(ctx context.Context, opts ExportOptions) ([]ExportFile, error) {
	if err := validateExport(&opts); err != nil {
		return nil, err
	}
	if opts.Bucket != "" && s.storage == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", domain.ErrInvalidInput)
	}
	if opts.Dir == "" {
		dir, err := os.MkdirTemp("", "lawnorm-export-*")
		if err != nil {
			return nil, fmt.Errorf("export: temp dir: %w", err)
		}
		defer os.RemoveAll(dir)
		opts.Dir = dir
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create dir: %w", err)
	}

	today := s.now()
	groups := make(map[string]*groupFile)
	closeAll := func() {
		for _, g := range groups {
			_ = g.close()
		}
	}

	err := s.output.Iterate(ctx, func(doc *domain.NormalizedDocument) error {
		key := groupKey(opts.GroupBy, doc)
		g, ok := groups[key]
		if !ok {
			var err error
			g, err = openGroup(opts, key, today)
			if err != nil {
				return err
			}
			groups[key] = g
		}
		return g.write(doc)
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("export: %w", err)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	files := make([]ExportFile, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		delete(groups, k)
		if err := g.close(); err != nil {
			closeAll()
			return nil, fmt.Errorf("export: close %s: %w", g.info.Path, err)
		}
		if opts.Bucket != "" {
			if err := s.upload(ctx, opts, &g.info); err != nil {
				closeAll()
				return nil, err
			}
		}
		files = append(files, g.info)
	}

	s.logger.Info("export.Export: done",
		zap.String("group_by", opts.GroupBy),
		zap.String("format", opts.Format),
		zap.Int("files", len(files)))
	return files, nil
}

func (s *exportService) upload(ctx context.Context, opts ExportOptions, info *ExportFile) error {
	f, err := os.Open(info.Path)
	if err != nil {
		return fmt.Errorf("export: reopen %s: %w", info.Path, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("export: stat %s: %w", info.Path, err)
	}

	contentType := "application/x-ndjson"
	if opts.Format == FormatCSV {
		contentType = "text/csv"
	}
	key := opts.Prefix + filepath.Base(info.Path)
	out, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      opts.Bucket,
		Key:         key,
		Body:        f,
		ContentType: contentType,
		Size:        st.Size(),
	})
	if err != nil {
		return fmt.Errorf("export: upload %s: %w", key, err)
	}
	info.Location = out.Location

	if opts.LinkExpiry > 0 {
		url, err := s.storage.GetPresignedURL(ctx, opts.Bucket, key, opts.LinkExpiry)
		if err != nil {
			return fmt.Errorf("export: presign %s: %w", key, err)
		}
		info.DownloadURL = url
	}
	return nil
}

func validateExport(opts *ExportOptions) error {
	if opts.GroupBy == "" {
		opts.GroupBy = GroupByType
	}
	if opts.Format == "" {
		opts.Format = FormatJSONL
	}
	if opts.GroupBy != GroupByType && opts.GroupBy != GroupByJurisdiction {
		return fmt.Errorf("%w: unknown grouping %q", domain.ErrInvalidInput, opts.GroupBy)
	}
	if opts.Format != FormatJSONL && opts.Format != FormatCSV {
		return fmt.Errorf("%w: unknown export format %q", domain.ErrInvalidInput, opts.Format)
	}
	return nil
}

// groupKey names the file a document belongs to.
func groupKey(groupBy string, doc *domain.NormalizedDocument) string {
	if groupBy == GroupByJurisdiction {
		j := doc.Jurisdiction
		return strings.ToUpper(j.StateCode) + "_" + j.PlaceName
	}
	return string(doc.DocumentType)
}

func openGroup(opts ExportOptions, key string, today time.Time) (*groupFile, error) {
	path := filepath.Join(opts.Dir, csvexport.BuildFilename(key, opts.Format, today))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	g := &groupFile{file: f, buf: bufio.NewWriter(f), info: ExportFile{Group: key, Path: path}}
	if opts.Format == FormatCSV {
		if _, err := g.buf.Write(csvexport.BOM); err != nil {
			_ = f.Close()
			return nil, err
		}
		g.csv = csvexport.NewWriter(g.buf)
		if err := g.csv.WriteHeader(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return g, nil
}
