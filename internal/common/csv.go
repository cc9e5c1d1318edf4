// Package common provides the CSV export helpers shared by the account and
// movement commands.
package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fjacquet/sci-ledger/internal/logging"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter matches the bank export the operators work with.
const DefaultDelimiter = ';'

// WriteCSV marshals rows, header first, to w using delimiter.
func WriteCSV[TRow any](w io.Writer, rows []TRow, delimiter rune) error {
	if rows == nil {
		rows = []TRow{}
	}
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteCSVFile writes rows to csvFile, creating its directory when needed.
func WriteCSVFile[TRow any](csvFile string, rows []TRow, delimiter rune, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: csvFile},
		logging.Field{Key: logging.FieldCount, Value: len(rows)},
	).Info("Writing CSV file")

	if err := os.MkdirAll(filepath.Dir(csvFile), 0750); err != nil {
		logger.WithError(err).Error("Failed to create directory")
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(csvFile) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		logger.WithError(err).Error("Failed to create CSV file")
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	return WriteCSV(file, rows, delimiter)
}
