package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Formats accepted by Write and Export.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// WriteCSV writes a header line followed by one line per record.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("writing %s: %w", r.AccountID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records as an indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// Write dispatches on format.
func Write(w io.Writer, format string, records []Record) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// WriteTable prints a condensed terminal view of the report.
func WriteTable(w io.Writer, records []Record) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Account", "Contact", "Best Channel", "Best Type", "Best Date", "Activities", "Attempts", "Promises"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range records {
		table.Append([]string{
			r.AccountID,
			r.Contact(),
			r.BestContactChannel,
			r.BestContactType,
			r.BestContactDate,
			strconv.Itoa(r.TotalActivities),
			strconv.Itoa(r.TotalAttempts),
			strconv.Itoa(r.TotalPromises),
		})
	}
	table.Render()
}

// TimestampedFilename returns dir/name_YYYYMMDD_HHMMSS.ext.
func TimestampedFilename(dir, name, ext string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", name, now.Format("20060102_150405"), ext))
}

// Export writes the records to a new timestamped file under dir and returns
// its path.
func Export(dir, format string, records []Record) (string, error) {
	if format != FormatCSV && format != FormatJSON {
		return "", fmt.Errorf("unknown report format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := TimestampedFilename(dir, "collections_report", format, time.Now())
	err := writeFile(path, func(w io.Writer) error {
		return Write(w, format, records)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// writeFile creates path and fills it with write. The file is removed if
// writing or closing fails.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing report: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("closing report: %w", err)
	}
	return nil
}
