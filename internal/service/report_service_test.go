package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"parking_console/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// seedEpisodes leaves one completed, one cancelled and one active booking.
func seedEpisodes(t *testing.T) (*ReportService, *ParkingService) {
	t.Helper()
	parking, store, clock := newTestParkingService(t)
	ctx := context.Background()
	p1 := mustAddSlot(t, parking, "P001")
	p2 := mustAddSlot(t, parking, "P002")
	mustAddSlot(t, parking, "P003")

	done := mustReserve(t, parking, asha, p1.ID, "KA01AB1234")
	if _, err := parking.CheckIn(ctx, staffActor, done.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	clock.Advance(90 * time.Minute)
	if _, err := parking.CheckOut(ctx, staffActor, done.ID); err != nil {
		t.Fatalf("check out: %v", err)
	}

	clock.Advance(time.Minute)
	cancelled := mustReserve(t, parking, ravi, p1.ID, "KA02CD5678")
	if _, err := parking.Cancel(ctx, ravi, cancelled.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	clock.Advance(time.Minute)
	active := mustReserve(t, parking, asha, p2.ID, "KA01AB1234")
	if _, err := parking.CheckIn(ctx, staffActor, active.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	return NewReportService(store), parking
}

func TestReportStats(t *testing.T) {
	reports, _ := seedEpisodes(t)
	ctx := context.Background()

	stats, err := reports.Stats(ctx, adminActor, domain.BookingFilter{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Cancelled != 1 || stats.Active != 1 || stats.Booked != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.Revenue.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("revenue: got %s", stats.Revenue)
	}

	ashaStats, err := reports.Stats(ctx, adminActor, domain.BookingFilter{UserName: "asha"})
	if err != nil || ashaStats.Total != 2 {
		t.Fatalf("filtered stats: %+v, %v", ashaStats, err)
	}
	if _, err := reports.Stats(ctx, staffActor, domain.BookingFilter{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReportFindBookings(t *testing.T) {
	reports, _ := seedEpisodes(t)
	ctx := context.Background()

	all, err := reports.FindBookings(ctx, adminActor, domain.BookingFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("find all: %d, %v", len(all), err)
	}
	if all[0].Status != domain.BookingActive {
		t.Fatalf("expected newest first, got %s", all[0].Status)
	}

	bySlot, err := reports.FindBookings(ctx, adminActor, domain.BookingFilter{Search: "p001"})
	if err != nil || len(bySlot) != 2 {
		t.Fatalf("search by slot: %d, %v", len(bySlot), err)
	}
	cancelled, err := reports.FindBookings(ctx, adminActor, domain.BookingFilter{Status: "Cancelled"})
	if err != nil || len(cancelled) != 1 || cancelled[0].UserName != "ravi" {
		t.Fatalf("by status: %+v, %v", cancelled, err)
	}
	if _, err := reports.FindBookings(ctx, adminActor, domain.BookingFilter{Status: "parked"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReportDashboard(t *testing.T) {
	reports, _ := seedEpisodes(t)
	d, err := reports.Dashboard(context.Background(), adminActor)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalSlots != 3 || d.OccupiedSlots != 1 || d.BookedSlots != 0 || d.ActiveBookings != 1 || len(d.RecentBookings) != 3 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}
	if d.TotalCustomers != 2 || d.TotalStaff != 1 {
		t.Fatalf("account counts: customers %d, staff %d", d.TotalCustomers, d.TotalStaff)
	}
}

func TestExportBookingsXLSX(t *testing.T) {
	reports, _ := seedEpisodes(t)
	raw, err := reports.ExportBookingsXLSX(context.Background(), adminActor, domain.BookingFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(bookingsSheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 4 || rows[0][0] != "ID" || rows[0][len(rows[0])-1] != "Amount" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	revenue, err := f.GetCellValue(summarySheet, "B6")
	if err != nil || revenue != "60.00" {
		t.Fatalf("revenue cell: %q, %v", revenue, err)
	}
}
