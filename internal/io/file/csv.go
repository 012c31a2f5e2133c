package file

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	gerrors "github.com/blong14/ledger/internal/errors"
	"github.com/blong14/ledger/store"
)

// ReadCSV reads key,value rows. Rows keep file order so bulk loading them
// is last write wins.
func ReadCSV(data string) ([]store.Entry[string, string], error) {
	f, err := os.Open(data)
	if err != nil {
		return nil, gerrors.NewGError(err)
	}
	defer func() { _ = f.Close() }()
	csvReader := csv.NewReader(f)
	csvReader.FieldsPerRecord = 2
	out := make([]store.Entry[string, string], 0)
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, gerrors.NewGError(fmt.Errorf("read %s: %w", data, err))
		}
		out = append(out, store.Entry[string, string]{Key: row[0], Value: row[1]})
	}
	return out, nil
}

func WriteCSV(data string, entries []store.Entry[string, string]) error {
	f, err := os.Create(data)
	if err != nil {
		return gerrors.NewGError(err)
	}
	w := csv.NewWriter(f)
	for _, e := range entries {
		if err := w.Write([]string{e.Key, e.Value}); err != nil {
			_ = f.Close()
			return gerrors.NewGError(err)
		}
	}
	w.Flush()
	return gerrors.Append(w.Error(), f.Close()).ErrorOrNil()
}
