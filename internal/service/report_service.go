package service

import (
	"bytes"
	"context"
	"fmt"
	"parking_console/internal/domain"
	"parking_console/internal/repository"

	"github.com/xuri/excelize/v2"
	"gopkg.in/guregu/null.v4"
)

const recentBookingsLimit = 20

// ReportService serves the admin read views over bookings.
type ReportService struct {
	store repository.Store
}

func NewReportService(store repository.Store) *ReportService {
	return &ReportService{store: store}
}

func validateFilter(filter domain.BookingFilter) (domain.BookingFilter, error) {
	if filter.Status != "" {
		status, err := domain.ParseBookingStatus(filter.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = string(status)
	}
	if filter.Limit < 0 {
		return filter, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	return filter, nil
}

func (s *ReportService) FindBookings(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, error) {
	if err := requireRole(actor, "booking report", domain.RoleAdmin); err != nil {
		return nil, err
	}
	filter, err := validateFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.store.Bookings().Find(ctx, filter)
}

// Stats counts matching bookings per status and sums their amounts. The
// limit is ignored so totals always cover every match.
func (s *ReportService) Stats(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) (domain.BookingStats, error) {
	filter.Limit = 0
	bookings, err := s.FindBookings(ctx, actor, filter)
	if err != nil {
		return domain.BookingStats{}, err
	}
	return domain.ComputeBookingStats(bookings), nil
}

func (s *ReportService) Dashboard(ctx context.Context, actor domain.Actor) (*domain.Dashboard, error) {
	if err := requireRole(actor, "dashboard", domain.RoleAdmin); err != nil {
		return nil, err
	}
	slots, err := s.store.Slots().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	customers, err := s.store.Users().CountByRole(ctx, domain.RoleCustomer)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}
	staff, err := s.store.Users().CountByRole(ctx, domain.RoleStaff)
	if err != nil {
		return nil, fmt.Errorf("count staff: %w", err)
	}
	active, err := s.store.Bookings().Find(ctx, domain.BookingFilter{Status: string(domain.BookingActive)})
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	recent, err := s.store.Bookings().Find(ctx, domain.BookingFilter{Limit: recentBookingsLimit})
	if err != nil {
		return nil, fmt.Errorf("list recent bookings: %w", err)
	}

	d := &domain.Dashboard{
		TotalSlots:     len(slots),
		TotalCustomers: customers,
		TotalStaff:     staff,
		ActiveBookings: len(active),
		RecentBookings: recent,
	}
	for i := range slots {
		if slots[i].Occupied {
			d.OccupiedSlots++
		}
		if slots[i].Booked {
			d.BookedSlots++
		}
	}
	return d, nil
}

const (
	bookingsSheet    = "Bookings"
	summarySheet     = "Summary"
	reportTimeLayout = "2006-01-02 15:04"
)

var bookingHeaders = []string{"ID", "Slot", "Vehicle", "User", "Status", "Booked At", "Entry", "Exit", "Duration", "Amount"}

// ExportBookingsXLSX renders the filtered bookings and their stats as a workbook.
func (s *ReportService) ExportBookingsXLSX(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]byte, error) {
	filter.Limit = 0
	bookings, err := s.FindBookings(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	stats := domain.ComputeBookingStats(bookings)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", bookingsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := make([]interface{}, len(bookingHeaders))
	for i, title := range bookingHeaders {
		header[i] = title
	}
	if err := f.SetSheetRow(bookingsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(bookingHeaders), 1)
	if err != nil {
		return nil, fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(bookingsSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("style header row: %w", err)
	}

	for i := range bookings {
		b := &bookings[i]
		row := []interface{}{
			b.ID, b.SlotNumber, b.VehicleNumber, b.UserName, string(b.Status),
			b.BookingTime.Format(reportTimeLayout), formatTime(b.EntryTime),
			formatTime(b.ExitTime), b.Duration.String, b.AmountOrZero().StringFixed(2),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("booking row cell: %w", err)
		}
		if err := f.SetSheetRow(bookingsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write booking row: %w", err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Total", stats.Total},
		{"Booked", stats.Booked},
		{"Active", stats.Active},
		{"Completed", stats.Completed},
		{"Cancelled", stats.Cancelled},
		{"Revenue", stats.Revenue.StringFixed(2)},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("summary row cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t null.Time) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(reportTimeLayout)
}
