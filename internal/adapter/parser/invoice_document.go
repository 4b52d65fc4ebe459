package parser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iho/goreconcile/internal/domain"
)

// invoiceDocument is the wire form of an invoice-data record. Money is kept
// as strings so no value passes through float64.
type invoiceDocument struct {
	InvoiceNumber       string `yaml:"invoice_number"`
	IssuerRef           string `yaml:"issuer_ref"`
	PayerRef            string `yaml:"payer_ref"`
	IssueDate           string `yaml:"issue_date"`
	ExpectedReceiptDate string `yaml:"expected_receipt_date"`
	GrossValue          string `yaml:"gross_value"`
	TotalDeductions     string `yaml:"total_deductions"`
	NetValue            string `yaml:"net_value"`
	Taxes               struct {
		ISS         string `yaml:"iss"`
		PIS         string `yaml:"pis"`
		COFINS      string `yaml:"cofins"`
		CSLL        string `yaml:"csll"`
		IRRF        string `yaml:"irrf"`
		INSS        string `yaml:"inss"`
		ISSRetained bool   `yaml:"iss_retained"`
	} `yaml:"taxes"`
}

// InvoiceDocumentParser decodes a YAML or JSON invoice-data document.
type InvoiceDocumentParser struct{}

// NewInvoiceDocumentParser creates a new InvoiceDocumentParser.
func NewInvoiceDocumentParser() *InvoiceDocumentParser {
	return &InvoiceDocumentParser{}
}

// Parse decodes content. JSON documents parse as YAML flow mappings.
func (p *InvoiceDocumentParser) Parse(content []byte) (*domain.InvoiceData, error) {
	var doc invoiceDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, domain.NewValidationError("file", fmt.Sprintf("invalid invoice document: %v", err), nil)
	}

	if strings.TrimSpace(doc.InvoiceNumber) == "" {
		return nil, domain.NewValidationError("invoice_number", "is required", nil)
	}

	issueDate, err := parseDate(strings.TrimSpace(doc.IssueDate))
	if err != nil {
		return nil, domain.NewValidationError("issue_date", err.Error(), nil)
	}

	data := &domain.InvoiceData{
		InvoiceNumber: strings.TrimSpace(doc.InvoiceNumber),
		IssuerRef:     strings.TrimSpace(doc.IssuerRef),
		PayerRef:      strings.TrimSpace(doc.PayerRef),
		IssueDate:     issueDate,
	}

	if s := strings.TrimSpace(doc.ExpectedReceiptDate); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return nil, domain.NewValidationError("expected_receipt_date", err.Error(), nil)
		}
		data.ExpectedReceiptDate = &d
	}

	money := []struct {
		field string
		raw   string
		dst   *decimal.Decimal
	}{
		{"gross_value", doc.GrossValue, &data.GrossValue},
		{"total_deductions", doc.TotalDeductions, &data.TotalDeductions},
		{"taxes.iss", doc.Taxes.ISS, &data.Taxes.ISS},
		{"taxes.pis", doc.Taxes.PIS, &data.Taxes.PIS},
		{"taxes.cofins", doc.Taxes.COFINS, &data.Taxes.COFINS},
		{"taxes.csll", doc.Taxes.CSLL, &data.Taxes.CSLL},
		{"taxes.irrf", doc.Taxes.IRRF, &data.Taxes.IRRF},
		{"taxes.inss", doc.Taxes.INSS, &data.Taxes.INSS},
	}
	for _, m := range money {
		v, err := parseMoney(m.raw)
		if err != nil {
			return nil, domain.NewValidationError(m.field, err.Error(), nil)
		}
		*m.dst = v
	}
	data.Taxes.ISSRetained = doc.Taxes.ISSRetained

	if !data.GrossValue.IsPositive() {
		return nil, domain.NewValidationError("gross_value", "must be positive", nil)
	}

	if s := strings.TrimSpace(doc.NetValue); s != "" {
		net, err := parseMoney(s)
		if err != nil {
			return nil, domain.NewValidationError("net_value", err.Error(), nil)
		}
		data.NetValueFromSource = &net
	}

	return data, nil
}

// parseMoney reads an optional non-negative amount. Blank is zero.
func parseMoney(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative")
	}
	return domain.RoundMoney(d), nil
}

