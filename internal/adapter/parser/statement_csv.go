// Package parser turns uploaded statement and invoice files into the
// structured records the import gate consumes.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/goreconcile/internal/domain"
)

// Statement columns. external_id is optional.
const (
	colDate        = "date"
	colDescription = "description"
	colAmount      = "amount"
	colExternalID  = "external_id"
)

// dateLayouts are tried in order.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "02.01.2006"}

// CSVStatementParser reads a header-led CSV bank statement.
type CSVStatementParser struct {
	separator rune
}

// NewCSVStatementParser creates a parser for the given field separator.
// A zero separator means ','.
func NewCSVStatementParser(separator rune) *CSVStatementParser {
	if separator == 0 {
		separator = ','
	}
	return &CSVStatementParser{separator: separator}
}

// Parse returns the statement lines in file order. A negative amount is a
// debit. The returned amounts keep their sign.
func (p *CSVStatementParser) Parse(content []byte) ([]domain.StatementLine, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	reader.Comma = p.separator
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.NewValidationError("file", "statement is empty", nil)
		}
		return nil, domain.NewValidationError("file", fmt.Sprintf("failed to read CSV header: %v", err), nil)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var lines []domain.StatementLine
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewValidationError("file", fmt.Sprintf("row %d: %v", row, err), nil)
		}
		if blank(record) {
			continue
		}

		line, err := p.parseRecord(record, cols)
		if err != nil {
			return nil, domain.NewValidationError("file", fmt.Sprintf("row %d: %v", row, err), nil)
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, domain.NewValidationError("file", "statement has no transactions", nil)
	}
	return lines, nil
}

func (p *CSVStatementParser) parseRecord(record []string, cols map[string]int) (domain.StatementLine, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := parseDate(field(colDate))
	if err != nil {
		return domain.StatementLine{}, err
	}

	amount, err := p.parseAmount(field(colAmount))
	if err != nil {
		return domain.StatementLine{}, err
	}
	if amount.IsZero() {
		return domain.StatementLine{}, errors.New("amount must not be zero")
	}

	typ := domain.TransactionTypeCredit
	if amount.IsNegative() {
		typ = domain.TransactionTypeDebit
	}

	return domain.StatementLine{
		ExternalID:  field(colExternalID),
		Amount:      amount,
		Type:        typ,
		Date:        date,
		Description: field(colDescription),
	}, nil
}

// parseAmount accepts "1234.56" and, with a ';' separator, the decimal
// comma form "1.234,56".
func (p *CSVStatementParser) parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(raw, " ", "")
	if s == "" {
		return decimal.Zero, errors.New("amount is required")
	}
	if p.separator != ',' && strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return d, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colDate, colDescription, colAmount} {
		if _, ok := cols[required]; !ok {
			return nil, domain.NewValidationError("file", "missing column "+required, nil)
		}
	}
	return cols, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
