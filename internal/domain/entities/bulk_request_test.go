package entities

import (
	"errors"
	"testing"
)

func newFulfilledRequest() *BulkRequest {
	return &BulkRequest{
		ID:       1,
		BuyerID:  7,
		Quantity: 1000,
		Status:   BulkStatusOrderFullFilled,
		AcceptedVendors: []VendorParticipation{
			{UserID: 10, CommittedQuantity: 600},
			{UserID: 11, CommittedQuantity: 500},
		},
		TotalCommittedQuantity: 1100,
	}
}

func TestBulkRequest_RemoveVendor_RevertsStatus(t *testing.T) {
	req := newFulfilledRequest()

	removed, err := req.RemoveVendor(10)
	if err != nil {
		t.Fatalf("RemoveVendor failed: %v", err)
	}
	if removed.UserID != 10 {
		t.Errorf("expected removed vendor 10, got %d", removed.UserID)
	}
	if req.TotalCommittedQuantity != 500 {
		t.Errorf("expected total 500, got %v", req.TotalCommittedQuantity)
	}
	if req.Status != BulkStatusActive {
		t.Errorf("expected status active, got %s", req.Status)
	}
	if len(req.AcceptedVendors) != 1 || req.AcceptedVendors[0].UserID != 11 {
		t.Errorf("unexpected remaining vendors: %+v", req.AcceptedVendors)
	}
}

func TestBulkRequest_RemoveVendor_KeepsStatusWhenCovered(t *testing.T) {
	req := newFulfilledRequest()
	req.AcceptedVendors = append(req.AcceptedVendors, VendorParticipation{UserID: 12, CommittedQuantity: 400})
	req.RecomputeCommitted()

	if _, err := req.RemoveVendor(12); err != nil {
		t.Fatalf("RemoveVendor failed: %v", err)
	}
	if req.TotalCommittedQuantity != 1100 {
		t.Errorf("expected total 1100, got %v", req.TotalCommittedQuantity)
	}
	if req.Status != BulkStatusOrderFullFilled {
		t.Errorf("expected status to stay order_full_filled, got %s", req.Status)
	}
}

func TestBulkRequest_RemoveVendor_OnlyRevertsFulfilled(t *testing.T) {
	req := newFulfilledRequest()
	req.Status = BulkStatusCompleted

	if _, err := req.RemoveVendor(10); err != nil {
		t.Fatalf("RemoveVendor failed: %v", err)
	}
	if req.Status != BulkStatusCompleted {
		t.Errorf("expected completed to be left alone, got %s", req.Status)
	}
}

func TestBulkRequest_RemoveVendor_NotFound(t *testing.T) {
	req := newFulfilledRequest()
	if _, err := req.RemoveVendor(99); !errors.Is(err, ErrVendorNotFound) {
		t.Errorf("expected ErrVendorNotFound, got %v", err)
	}
	if len(req.AcceptedVendors) != 2 || req.TotalCommittedQuantity != 1100 {
		t.Error("request mutated on failed removal")
	}
}

func TestBulkRequest_CanStartPickup(t *testing.T) {
	req := newFulfilledRequest()
	if !req.CanStartPickup() {
		t.Error("expected fulfilled request with vendors to allow start")
	}

	req.AcceptedVendors[0].OrderID = idPtr(300)
	if req.CanStartPickup() {
		t.Error("expected start to be refused once orders exist")
	}

	pending := &BulkRequest{Status: BulkStatusPending, AcceptedVendors: []VendorParticipation{{UserID: 1}}}
	if pending.CanStartPickup() {
		t.Error("expected pending request to refuse start")
	}

	empty := &BulkRequest{Status: BulkStatusActive}
	if empty.CanStartPickup() {
		t.Error("expected request without vendors to refuse start")
	}
}

func TestBulkRequest_CloneIsIndependent(t *testing.T) {
	req := newFulfilledRequest()
	clone := req.Clone()
	if _, err := clone.RemoveVendor(10); err != nil {
		t.Fatal(err)
	}
	if len(req.AcceptedVendors) != 2 || req.Status != BulkStatusOrderFullFilled {
		t.Error("removing from clone mutated the original")
	}
}
