package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInvoiceData_NetValue(t *testing.T) {
	fromSource := dec("880.00")
	zero := decimal.Zero

	tests := []struct {
		name string
		data InvoiceData
		want string
	}{
		{
			name: "source net value trusted",
			data: InvoiceData{GrossValue: dec("1000.00"), TotalDeductions: dec("50.00"), NetValueFromSource: &fromSource},
			want: "880.00",
		},
		{
			name: "zero source net value ignored",
			data: InvoiceData{GrossValue: dec("1000.00"), TotalDeductions: dec("50.00"), NetValueFromSource: &zero},
			want: "950.00",
		},
		{
			name: "retained iss deducted",
			data: InvoiceData{GrossValue: dec("1000.00"), TotalDeductions: dec("50.00"), Taxes: Taxes{ISS: dec("20.00"), ISSRetained: true}},
			want: "930.00",
		},
		{
			name: "non retained iss kept",
			data: InvoiceData{GrossValue: dec("1000.00"), TotalDeductions: dec("50.00"), Taxes: Taxes{ISS: dec("20.00")}},
			want: "950.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.data.NetValue(); !got.Equal(dec(tt.want)) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestInvoiceData_Validate(t *testing.T) {
	data := InvoiceData{GrossValue: decimal.Zero}
	if err := data.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	data = InvoiceData{GrossValue: dec("10"), TotalDeductions: dec("-1")}
	if err := data.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative deductions, got %v", err)
	}
}

func TestInvoice_CreditAndDebit(t *testing.T) {
	now := time.Now()
	inv := NewInvoice("inv-1", "tenant-1", "hash", &InvoiceData{GrossValue: dec("1000.00")}, now)

	if inv.Status != InvoiceStatusPending {
		t.Fatalf("expected pending, got %s", inv.Status)
	}

	inv.Credit(dec("400.00"), now)
	if inv.Status != InvoiceStatusPartiallyReceived {
		t.Fatalf("expected partially_received, got %s", inv.Status)
	}

	inv.Credit(dec("599.99"), now)
	if inv.Status != InvoiceStatusReceived {
		t.Fatalf("expected received within epsilon, got %s", inv.Status)
	}

	inv.Debit(dec("599.99"), now)
	if inv.Status != InvoiceStatusPartiallyReceived || !inv.TotalReceived.Equal(dec("400.00")) {
		t.Fatalf("unexpected state after debit: %s %s", inv.Status, inv.TotalReceived)
	}

	inv.Debit(dec("400.00"), now)
	if inv.Status != InvoiceStatusPending || !inv.TotalReceived.IsZero() {
		t.Fatalf("expected pending with zero received, got %s %s", inv.Status, inv.TotalReceived)
	}
}

func TestInvoiceReceipt_Credited(t *testing.T) {
	r := InvoiceReceipt{Amount: dec("950.00"), AdjustmentAmount: dec("-50.00")}
	if !r.Credited().Equal(dec("1000.00")) {
		t.Fatalf("expected 1000.00, got %s", r.Credited())
	}
}

func TestValidateAllocationLines(t *testing.T) {
	gross := dec("1000.00")

	tests := []struct {
		name    string
		lines   []AllocationLine
		wantErr error
	}{
		{"exact sum", []AllocationLine{{"p1", dec("600.00")}, {"p2", dec("400.00")}}, nil},
		{"within one cent", []AllocationLine{{"p1", dec("600.00")}, {"p2", dec("400.01")}}, nil},
		{"two cents off", []AllocationLine{{"p1", dec("600.00")}, {"p2", dec("400.02")}}, ErrAllocationMismatch},
		{"missing payee", []AllocationLine{{"", dec("1000.00")}}, ErrValidation},
		{"zero value", []AllocationLine{{"p1", dec("1000.00")}, {"p2", decimal.Zero}}, ErrInvalidAmount},
		{"no lines", nil, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAllocationLines(gross, tt.lines)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected every rejection to be a validation error, got %v", err)
			}
		})
	}
}

func TestNewInvoiceAllocation_AdminFee(t *testing.T) {
	inv := &Invoice{ID: "inv-1", TenantID: "t"}
	payee := &Payee{ID: "p1", FeeRate: dec("12.5")}

	alloc := NewInvoiceAllocation("a1", inv, AllocationLine{PayeeID: "p1", AllocatedGrossValue: dec("333.33")}, payee, time.Now())

	if !alloc.AdminFee.Equal(dec("41.67")) {
		t.Fatalf("expected fee 41.67, got %s", alloc.AdminFee)
	}
	if !alloc.AmountToPay.Equal(dec("291.66")) {
		t.Fatalf("expected amount to pay 291.66, got %s", alloc.AmountToPay)
	}
}

func TestPayable_SetPaidTotal(t *testing.T) {
	now := time.Now()
	p := &Payable{AmountToPay: dec("100.00"), Status: PayableStatusPending}

	p.SetPaidTotal(dec("40.00"), &now, now)
	if p.Status != PayableStatusPartiallyPaid || p.PaidAt != nil {
		t.Fatalf("expected partially_paid without paid_at, got %s", p.Status)
	}

	p.SetPaidTotal(dec("100.00"), &now, now)
	if p.Status != PayableStatusPaid || p.PaidAt == nil {
		t.Fatalf("expected paid with paid_at, got %s", p.Status)
	}

	p.SetPaidTotal(decimal.Zero, nil, now)
	if p.Status != PayableStatusPending {
		t.Fatalf("expected pending, got %s", p.Status)
	}
}

func TestPayment_Reverse(t *testing.T) {
	now := time.Now()
	p := &Payment{ID: "pay-1", Amount: dec("10.00")}

	if err := p.Reverse("user-1", "", now); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected reason required, got %v", err)
	}
	if err := p.Reverse("user-1", "duplicate payment", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsReversed() || p.ReversedBy != "user-1" || p.ReversalReason != "duplicate payment" {
		t.Fatalf("reversal fields not set: %+v", p)
	}
	if err := p.Reverse("user-1", "again", now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error on double reversal, got %v", err)
	}

	if total := SettledTotal([]*Payment{p, {Amount: dec("5.00")}}); !total.Equal(dec("5.00")) {
		t.Fatalf("expected reversed payment excluded, got %s", total)
	}
}
