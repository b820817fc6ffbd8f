// Package fetcher acquires and parses import sources: local CSV/XLSX files
// and workbooks fetched over HTTP or FTP.
package fetcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Source is one spreadsheet source resolved to a local file, ready to parse.
type Source struct {
	// Path is the local filesystem path of the (possibly downloaded) file.
	Path string
	// Name is the original location, for logging and run records.
	Name string
	// cleanup removes a temp download; nil for local files.
	cleanup func()
}

// Close removes any temporary download backing the source.
func (s *Source) Close() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// Resolver turns a source location (path or URL) into a local file.
type Resolver struct {
	http *HTTPFetcher
	ftp  *FTPFetcher
}

// NewResolver creates a Resolver with the given transports.
func NewResolver(httpF *HTTPFetcher, ftpF *FTPFetcher) *Resolver {
	return &Resolver{http: httpF, ftp: ftpF}
}

// Resolve fetches location into a local file when it is a URL, or validates
// it as a local path otherwise.
func (r *Resolver) Resolve(ctx context.Context, location string) (*Source, error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return r.download(ctx, location, func(ctx context.Context, w io.Writer) error {
			body, err := r.http.Download(ctx, location)
			if err != nil {
				return err
			}
			defer body.Close()
			_, err = io.Copy(w, body)
			return eris.Wrap(err, "fetcher: copy http body")
		})
	case strings.HasPrefix(location, "ftp://"):
		return r.download(ctx, location, func(ctx context.Context, w io.Writer) error {
			body, err := r.ftp.Download(ctx, location)
			if err != nil {
				return err
			}
			defer body.Close()
			_, err = io.Copy(w, body)
			return eris.Wrap(err, "fetcher: copy ftp body")
		})
	default:
		if _, err := os.Stat(location); err != nil {
			return nil, eris.Wrapf(err, "fetcher: stat %s", location)
		}
		return &Source{Path: location, Name: location}, nil
	}
}

func (r *Resolver) download(ctx context.Context, location string, fetch func(context.Context, io.Writer) error) (*Source, error) {
	// Preserve the extension so the parser can route by it.
	f, err := os.CreateTemp("", "crm-import-*"+filepath.Ext(location))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create temp file")
	}
	if err := fetch(ctx, f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, eris.Wrap(err, "fetcher: close temp file")
	}
	path := f.Name()
	return &Source{
		Path:    path,
		Name:    location,
		cleanup: func() { os.Remove(path) },
	}, nil
}

// Parse reads a resolved source into a header row and data rows, routing by
// file extension (.xlsx to the workbook reader, everything else to CSV).
func Parse(src *Source, opts ParseOptions) (header []string, rows [][]string, err error) {
	if strings.EqualFold(filepath.Ext(src.Path), ".xlsx") {
		return ReadWorkbook(src.Path, opts)
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "fetcher: open %s", src.Path)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// ParseOptions configures source parsing.
type ParseOptions struct {
	// SheetName selects an XLSX sheet by name; empty means SheetIndex.
	SheetName string
	// SheetIndex selects an XLSX sheet by position, default 0.
	SheetIndex int
	// SkipRows drops leading rows above the header (title banners).
	SkipRows int
	// Delimiter overrides the CSV field separator, default ','.
	Delimiter rune
}
