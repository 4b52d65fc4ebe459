package payee

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/goreconcile/internal/domain"
	"github.com/iho/goreconcile/internal/usecase/mocks"
)

func TestCachedDirectoryReadsThroughOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockPayeeDirectory(ctrl)

	payee := &domain.Payee{ID: "p1", TenantID: "t1", Name: "Dr. Silva", FeeRate: decimal.RequireFromString("10")}
	next.EXPECT().Get(gomock.Any(), "t1", "p1").Return(payee, nil).Times(1)

	dir := NewCachedDirectory(next, time.Minute)
	for i := 0; i < 3; i++ {
		got, err := dir.Get(context.Background(), "t1", "p1")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if got.Name != "Dr. Silva" {
			t.Fatalf("unexpected payee: %+v", got)
		}
	}
}

func TestCachedDirectoryIsTenantScoped(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockPayeeDirectory(ctrl)

	next.EXPECT().Get(gomock.Any(), "t1", "p1").Return(&domain.Payee{ID: "p1", TenantID: "t1"}, nil)
	next.EXPECT().Get(gomock.Any(), "t2", "p1").Return(nil, domain.NewNotFoundError(domain.EntityPayee, "p1"))

	dir := NewCachedDirectory(next, time.Minute)
	if _, err := dir.Get(context.Background(), "t1", "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := dir.Get(context.Background(), "t2", "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for other tenant, got %v", err)
	}
}

func TestCachedDirectoryDoesNotCacheErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockPayeeDirectory(ctrl)

	gomock.InOrder(
		next.EXPECT().Get(gomock.Any(), "t1", "p1").Return(nil, errors.New("db down")),
		next.EXPECT().Get(gomock.Any(), "t1", "p1").Return(&domain.Payee{ID: "p1", TenantID: "t1"}, nil),
	)

	dir := NewCachedDirectory(next, time.Minute)
	if _, err := dir.Get(context.Background(), "t1", "p1"); err == nil {
		t.Fatalf("expected first lookup to fail")
	}
	if _, err := dir.Get(context.Background(), "t1", "p1"); err != nil {
		t.Fatalf("expected second lookup to reach the directory, got %v", err)
	}
}

func TestCachedDirectoryReturnsCopies(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockPayeeDirectory(ctrl)
	next.EXPECT().Get(gomock.Any(), "t1", "p1").Return(&domain.Payee{ID: "p1", TenantID: "t1", Name: "A"}, nil)

	dir := NewCachedDirectory(next, time.Minute)
	first, _ := dir.Get(context.Background(), "t1", "p1")
	first.Name = "mutated"

	second, _ := dir.Get(context.Background(), "t1", "p1")
	if second.Name != "A" {
		t.Fatalf("cache entry was mutated through a returned pointer")
	}
}
