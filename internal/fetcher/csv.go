package fetcher

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
)

// ReadCSV parses a CSV source into a header row and data rows. Rows may have
// varying field counts; quoting is lenient because exported workbooks are
// rarely well-formed.
func ReadCSV(r io.Reader, opts ParseOptions) (header []string, rows [][]string, err error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "csv: read row")
		}
		if skipped < opts.SkipRows {
			skipped++
			continue
		}
		if header == nil {
			header = record
			continue
		}
		rows = append(rows, record)
	}
	if header == nil {
		return nil, nil, eris.New("csv: no header row")
	}
	return header, rows, nil
}
