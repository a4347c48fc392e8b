package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/spektr-org/painel/schema"
	"github.com/spektr-org/painel/visits"
)

// CSV writes records as comma-separated UTF-8 text with a leading byte
// order mark, header row first.
func CSV(w io.Writer, records []visits.ServiceRecord, cfg schema.Config) error {
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)

	if err := cw.Write(cfg.Headers()); err != nil {
		return fmt.Errorf("export: csv header: %w", err)
	}
	row := make([]string, len(cfg.Columns))
	for _, r := range records {
		for i, col := range cfg.Columns {
			row[i] = text(r, col.Key)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: csv row %d: %w", r.SourceRow, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: csv flush: %w", err)
	}
	return bw.Close()
}
