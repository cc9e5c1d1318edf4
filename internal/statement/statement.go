// Package statement parses the bank's semicolon-delimited CSV export into
// classified, fingerprinted transaction drafts.
package statement

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fjacquet/sci-ledger/internal/apperrors"
	"fjacquet/sci-ledger/internal/dateutils"
	"fjacquet/sci-ledger/internal/fingerprint"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// Separator joins description fragments.
const Separator = " - "

// Normalized column names consumed by the parser
const (
	ColumnDate      = "date"
	ColumnNature    = "nature_de_l_operation"
	ColumnInterbank = "libelle_interbancaire"
	ColumnDebit     = "debit"
	ColumnCredit    = "credit"
)

// ErrNoHeader is returned when nothing follows the preamble.
var ErrNoHeader = errors.New("statement has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one physical record of the export, keyed by normalized header.
type Row struct {
	Date      string `csv:"date"`
	Nature    string `csv:"nature_de_l_operation"`
	Interbank string `csv:"libelle_interbancaire"`
	Debit     string `csv:"debit"`
	Credit    string `csv:"credit"`
}

// Classifier assigns a classification to an assembled description.
type Classifier interface {
	Classify(ctx context.Context, description string) models.Classification
}

// Options controls the export layout.
type Options struct {
	PreambleLines int
	Delimiter     rune
}

// DefaultOptions matches the bank's export: five metadata lines, then a
// semicolon-delimited table.
func DefaultOptions() Options {
	return Options{PreambleLines: 5, Delimiter: ';'}
}

// Result holds the drafts of one statement and the non-fatal problems met
// while parsing it.
type Result struct {
	Drafts   []models.Draft
	Warnings []error
}

// Parser turns statement text into drafts.
type Parser struct {
	opts       Options
	classifier Classifier
	logger     logging.Logger
}

// NewParser creates a Parser. A zero delimiter falls back to ';'.
func NewParser(opts Options, classifier Classifier, logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}
	if opts.PreambleLines < 0 {
		opts.PreambleLines = 0
	}
	return &Parser{opts: opts, classifier: classifier, logger: logger}
}

// ParseFile reads the whole file and parses it.
func (p *Parser) ParseFile(ctx context.Context, filePath string) (*Result, error) {
	p.logger.WithField(logging.FieldFile, filePath).Info("Parsing bank statement")

	data, err := os.ReadFile(filePath) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return nil, fmt.Errorf("error reading statement file: %w", err)
	}
	return p.ParseBytes(ctx, data)
}

// Parse reads r fully and parses it.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading statement: %w", err)
	}
	return p.ParseBytes(ctx, data)
}

// ParseBytes parses an in-memory statement. Only an unreadable table or a
// header lacking the expected columns fails the whole parse; bad values
// become warnings.
func (p *Parser) ParseBytes(ctx context.Context, data []byte) (*Result, error) {
	if err := p.ValidateHeader(data); err != nil {
		return nil, err
	}

	body := skipLines(bytes.TrimPrefix(data, utf8BOM), p.opts.PreambleLines)

	reader := newHeaderNormalizingReader(bytes.NewReader(body), p.opts.Delimiter, p.opts.PreambleLines)
	var rows []*Row
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		if errors.Is(err, ErrNoHeader) {
			return nil, ErrNoHeader
		}
		p.logger.WithError(err).Error("Failed to read bank statement")
		return nil, fmt.Errorf("error reading statement: %w", err)
	}

	p.logger.Debug("Read statement rows", logging.F(logging.FieldCount, len(rows)))

	result := &Result{}
	var current *models.Draft
	flush := func() {
		if current == nil {
			return
		}
		result.Drafts = append(result.Drafts, p.finalize(ctx, *current))
		current = nil
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := reader.line(i)
		date := strings.TrimSpace(row.Date)

		if date == "" {
			fragment := firstNonEmpty(row.Nature, row.Interbank)
			if fragment == "" {
				continue
			}
			if current == nil {
				p.logger.Debug("Ignoring continuation line before first transaction",
					logging.F(logging.FieldLine, line))
				continue
			}
			current.Label = joinParts(current.Label, fragment)
			continue
		}

		flush()
		current = p.startDraft(line, date, row, result)
	}
	flush()

	p.logger.Info("Parsed bank statement",
		logging.F(logging.FieldCount, len(result.Drafts)),
		logging.F("warnings", len(result.Warnings)))
	return result, nil
}

func (p *Parser) startDraft(line int, date string, row *Row, result *Result) *models.Draft {
	d := &models.Draft{
		Line:   line,
		Label:  joinParts(row.Nature, row.Interbank),
		Source: models.SourceCSV,
	}

	iso, err := dateutils.FrenchToISO(date)
	if err != nil {
		result.Warnings = append(result.Warnings, p.warn(line, ColumnDate, date, err))
		iso = date
	}
	d.Date = iso

	d.Debit = p.amount(line, ColumnDebit, row.Debit, result)
	d.Credit = p.amount(line, ColumnCredit, row.Credit, result)
	d.SignAmounts()
	return d
}

func (p *Parser) amount(line int, column, raw string, result *Result) decimal.NullDecimal {
	parsed, err := models.ParseAmount(raw)
	if err != nil {
		result.Warnings = append(result.Warnings, p.warn(line, column, raw, err))
		return decimal.NullDecimal{}
	}
	return parsed
}

func (p *Parser) warn(line int, column, value string, err error) error {
	parseErr := &apperrors.ParseError{Line: line, Field: column, Value: value, Err: err}
	p.logger.WithError(err).Warn("Malformed statement value, keeping it empty",
		logging.F(logging.FieldLine, line),
		logging.F("column", column))
	return parseErr
}

func (p *Parser) finalize(ctx context.Context, d models.Draft) models.Draft {
	d.Label = strings.TrimSpace(d.Label)
	if p.classifier != nil {
		d.Classification = p.classifier.Classify(ctx, d.Label)
	}
	d.Fingerprint = fingerprint.Of(d)
	return d
}

// ValidateHeader reports whether data, after the preamble, carries the
// columns the parser needs.
func (p *Parser) ValidateHeader(data []byte) error {
	body := skipLines(bytes.TrimPrefix(data, utf8BOM), p.opts.PreambleLines)
	reader := newHeaderNormalizingReader(bytes.NewReader(body), p.opts.Delimiter, p.opts.PreambleLines)
	header, err := reader.Reader.Read()
	if err == io.EOF {
		return ErrNoHeader
	}
	if err != nil {
		return fmt.Errorf("error reading statement header: %w", err)
	}
	for i, name := range header {
		header[i] = NormalizeHeader(name)
	}

	var missing []string
	for _, column := range []string{ColumnDate, ColumnDebit, ColumnCredit} {
		if !hasColumn(header, column) {
			missing = append(missing, column)
		}
	}
	if !hasColumn(header, ColumnNature) && !hasColumn(header, ColumnInterbank) {
		missing = append(missing, ColumnNature+"|"+ColumnInterbank)
	}
	if len(missing) > 0 {
		return fmt.Errorf("statement header is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// skipLines drops the first n physical lines.
func skipLines(data []byte, n int) []byte {
	for i := 0; i < n; i++ {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return nil
		}
		data = data[idx+1:]
	}
	return data
}

func joinParts(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, Separator)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
