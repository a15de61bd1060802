package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"parking_console/internal/domain"
	"parking_console/internal/repository/memory"

	"github.com/shopspring/decimal"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var (
	adminActor = domain.Actor{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
	staffActor = domain.Actor{UserID: 2, Username: "gatekeeper", Role: domain.RoleStaff}
	asha       = domain.Actor{UserID: 3, Username: "asha", Role: domain.RoleCustomer}
	ravi       = domain.Actor{UserID: 4, Username: "ravi", Role: domain.RoleCustomer}
)

// seedAccounts stores a user for each actor and returns the actors carrying
// the ids the store assigned.
func seedAccounts(t *testing.T, store *memory.Store, actors ...domain.Actor) []domain.Actor {
	t.Helper()
	seeded := make([]domain.Actor, 0, len(actors))
	for _, a := range actors {
		u, err := store.Users().Create(context.Background(), &domain.User{
			Username: a.Username,
			Phone:    "phone-" + a.Username,
			Role:     a.Role,
		})
		if err != nil {
			t.Fatalf("seed account %s: %v", a.Username, err)
		}
		a.UserID = u.ID
		seeded = append(seeded, a)
	}
	return seeded
}

func newTestParkingService(t *testing.T) (*ParkingService, *memory.Store, *fakeClock) {
	t.Helper()
	store := memory.NewStore()
	for i, a := range seedAccounts(t, store, adminActor, staffActor, asha, ravi) {
		if a.UserID != i+1 {
			t.Fatalf("account %s got id %d, want %d", a.Username, a.UserID, i+1)
		}
	}
	svc := NewParkingService(store, decimal.NewFromInt(30))
	clock := newFakeClock()
	svc.now = clock.Now
	return svc, store, clock
}

func mustAddSlot(t *testing.T, svc *ParkingService, number string) *domain.ParkingSlot {
	t.Helper()
	slot, err := svc.AddSlot(context.Background(), adminActor, domain.CreateSlotDTO{Number: number})
	if err != nil {
		t.Fatalf("add slot %s: %v", number, err)
	}
	return slot
}

func mustReserve(t *testing.T, svc *ParkingService, actor domain.Actor, slotID int, vehicle string) *domain.Booking {
	t.Helper()
	b, err := svc.Reserve(context.Background(), actor, domain.ReserveSlotDTO{SlotID: slotID, VehicleNumber: vehicle})
	if err != nil {
		t.Fatalf("reserve slot %d for %s: %v", slotID, actor.Username, err)
	}
	return b
}

func mustSlot(t *testing.T, svc *ParkingService, id int) *domain.ParkingSlot {
	t.Helper()
	slot, err := svc.GetSlot(context.Background(), id)
	if err != nil {
		t.Fatalf("get slot %d: %v", id, err)
	}
	return slot
}

func assertFlagsExclusive(t *testing.T, svc *ParkingService) {
	t.Helper()
	slots, err := svc.ListSlots(context.Background())
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	for _, s := range slots {
		if s.Occupied && s.Booked {
			t.Fatalf("slot %s is both booked and occupied", s.Number)
		}
	}
}

func TestReserveAvailableSlot(t *testing.T) {
	svc, _, clock := newTestParkingService(t)
	slot := mustAddSlot(t, svc, "P001")

	b := mustReserve(t, svc, asha, slot.ID, " ka01ab1234 ")

	if b.Status != domain.BookingBooked {
		t.Fatalf("status: got %s", b.Status)
	}
	if b.VehicleNumber != "KA01AB1234" || b.UserName != "asha" || b.SlotNumber != "P001" {
		t.Fatalf("unexpected booking: %+v", b)
	}
	if !b.BookingTime.Equal(clock.Now()) {
		t.Fatalf("booking time: got %s", b.BookingTime)
	}
	if !b.Amount.Valid || !b.Amount.Decimal.IsZero() {
		t.Fatalf("amount should start at 0, got %+v", b.Amount)
	}
	if b.Duration.Valid || b.EntryTime.Valid || b.ExitTime.Valid {
		t.Fatalf("duration and times must be empty: %+v", b)
	}

	got := mustSlot(t, svc, slot.ID)
	if !got.Booked || got.Occupied {
		t.Fatalf("slot flags: %+v", got)
	}
	if got.VehicleNumber.String != "KA01AB1234" || got.UserName.String != "asha" {
		t.Fatalf("slot occupant: %+v", got)
	}
}

func TestReserveSameSlotTwice(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	slot := mustAddSlot(t, svc, "P001")
	mustReserve(t, svc, asha, slot.ID, "KA01AB1234")

	_, err := svc.Reserve(context.Background(), ravi, domain.ReserveSlotDTO{SlotID: slot.ID, VehicleNumber: "KA02CD5678"})
	if !errors.Is(err, domain.ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
	got := mustSlot(t, svc, slot.ID)
	if got.UserName.String != "asha" {
		t.Fatalf("slot changed by rejected reserve: %+v", got)
	}
}

func TestReserveVehicleAlreadyParked(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	first := mustAddSlot(t, svc, "P001")
	second := mustAddSlot(t, svc, "P002")
	mustReserve(t, svc, asha, first.ID, "KA01AB1234")

	_, err := svc.Reserve(context.Background(), ravi, domain.ReserveSlotDTO{SlotID: second.ID, VehicleNumber: "ka01ab1234"})
	if !errors.Is(err, domain.ErrVehicleAlreadyParked) {
		t.Fatalf("expected ErrVehicleAlreadyParked, got %v", err)
	}
	if mustSlot(t, svc, second.ID).InUse() {
		t.Fatalf("second slot must stay free")
	}
}

func TestReserveUserAlreadyHasBooking(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	first := mustAddSlot(t, svc, "P001")
	second := mustAddSlot(t, svc, "P002")
	b := mustReserve(t, svc, asha, first.ID, "KA01AB1234")

	_, err := svc.Reserve(context.Background(), asha, domain.ReserveSlotDTO{SlotID: second.ID, VehicleNumber: "KA05ZZ0001"})
	if !errors.Is(err, domain.ErrUserAlreadyHasBooking) {
		t.Fatalf("expected ErrUserAlreadyHasBooking, got %v", err)
	}

	// Still refused while the vehicle is parked.
	if _, err := svc.CheckIn(context.Background(), staffActor, b.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	_, err = svc.Reserve(context.Background(), asha, domain.ReserveSlotDTO{SlotID: second.ID, VehicleNumber: "KA05ZZ0001"})
	if !errors.Is(err, domain.ErrUserAlreadyHasBooking) {
		t.Fatalf("expected ErrUserAlreadyHasBooking while active, got %v", err)
	}
}

func TestReserveRejections(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	slot := mustAddSlot(t, svc, "P001")
	ctx := context.Background()

	cases := []struct {
		name  string
		actor domain.Actor
		dto   domain.ReserveSlotDTO
		want  error
	}{
		{"staff cannot reserve", staffActor, domain.ReserveSlotDTO{SlotID: slot.ID, VehicleNumber: "KA01AB1234"}, domain.ErrForbidden},
		{"admin cannot reserve", adminActor, domain.ReserveSlotDTO{SlotID: slot.ID, VehicleNumber: "KA01AB1234"}, domain.ErrForbidden},
		{"short vehicle", asha, domain.ReserveSlotDTO{SlotID: slot.ID, VehicleNumber: " k1 "}, domain.ErrInvalidInput},
		{"missing slot", asha, domain.ReserveSlotDTO{SlotID: 999, VehicleNumber: "KA01AB1234"}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.Reserve(ctx, tc.actor, tc.dto); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if mustSlot(t, svc, slot.ID).InUse() {
		t.Fatalf("rejected reserves must not touch the slot")
	}
}

func TestCheckInAndCheckOutAfter90Minutes(t *testing.T) {
	svc, _, clock := newTestParkingService(t)
	ctx := context.Background()
	slot := mustAddSlot(t, svc, "P001")
	b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")

	clock.Advance(10 * time.Minute)
	active, err := svc.CheckIn(ctx, staffActor, b.ID)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if active.Status != domain.BookingActive || !active.EntryTime.Time.Equal(clock.Now()) {
		t.Fatalf("unexpected active booking: %+v", active)
	}
	parked := mustSlot(t, svc, slot.ID)
	if !parked.Occupied || parked.Booked || !parked.EntryTime.Time.Equal(active.EntryTime.Time) {
		t.Fatalf("unexpected parked slot: %+v", parked)
	}
	assertFlagsExclusive(t, svc)

	clock.Advance(90 * time.Minute)
	done, err := svc.CheckOut(ctx, staffActor, b.ID)
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if done.Status != domain.BookingCompleted {
		t.Fatalf("status: got %s", done.Status)
	}
	if done.DurationHours.Int64 != 2 || done.Duration.String != "2 hours" {
		t.Fatalf("duration: %+v / %q", done.DurationHours, done.Duration.String)
	}
	if !done.Amount.Decimal.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("amount: got %s, want 60", done.Amount.Decimal)
	}
	if !done.ExitTime.Time.Equal(clock.Now()) {
		t.Fatalf("exit time: got %s", done.ExitTime.Time)
	}

	freed := mustSlot(t, svc, slot.ID)
	if freed.InUse() || freed.VehicleNumber.Valid || freed.UserName.Valid || freed.EntryTime.Valid {
		t.Fatalf("slot not fully cleared: %+v", freed)
	}
}

func TestCheckOutFeeRounding(t *testing.T) {
	cases := []struct {
		stay     time.Duration
		hours    int64
		amount   int64
		duration string
	}{
		{60 * time.Minute, 1, 30, "1 hour"},
		{61 * time.Minute, 2, 60, "2 hours"},
		{5 * time.Minute, 1, 30, "1 hour"},
		{0, 0, 0, "0 hours"},
		{3*time.Hour + time.Second, 4, 120, "4 hours"},
	}
	for _, tc := range cases {
		svc, _, clock := newTestParkingService(t)
		ctx := context.Background()
		slot := mustAddSlot(t, svc, "P001")
		b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")
		if _, err := svc.CheckIn(ctx, staffActor, b.ID); err != nil {
			t.Fatalf("check in: %v", err)
		}
		clock.Advance(tc.stay)
		done, err := svc.CheckOut(ctx, staffActor, b.ID)
		if err != nil {
			t.Fatalf("check out after %s: %v", tc.stay, err)
		}
		if done.DurationHours.Int64 != tc.hours || !done.Amount.Decimal.Equal(decimal.NewFromInt(tc.amount)) || done.Duration.String != tc.duration {
			t.Fatalf("stay %s: got %d hours, amount %s, %q", tc.stay, done.DurationHours.Int64, done.Amount.Decimal, done.Duration.String)
		}
	}
}

func TestCheckOutTwiceIsRejected(t *testing.T) {
	svc, _, clock := newTestParkingService(t)
	ctx := context.Background()
	slot := mustAddSlot(t, svc, "P001")
	b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")
	if _, err := svc.CheckIn(ctx, staffActor, b.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	clock.Advance(61 * time.Minute)
	first, err := svc.CheckOut(ctx, staffActor, b.ID)
	if err != nil {
		t.Fatalf("check out: %v", err)
	}

	clock.Advance(5 * time.Hour)
	if _, err := svc.CheckOut(ctx, staffActor, b.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	again, err := svc.GetBooking(ctx, staffActor, b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if !again.Amount.Decimal.Equal(first.Amount.Decimal) || !again.ExitTime.Time.Equal(first.ExitTime.Time) {
		t.Fatalf("second check-out recomputed the fee: %+v", again)
	}
}

func TestCheckOutRequiresActiveBooking(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	slot := mustAddSlot(t, svc, "P001")
	b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")
	if _, err := svc.CheckOut(context.Background(), staffActor, b.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if !mustSlot(t, svc, slot.ID).Booked {
		t.Fatalf("rejected check-out must leave the slot booked")
	}
}

func TestCancelThenCheckIn(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	ctx := context.Background()
	slot := mustAddSlot(t, svc, "P001")
	b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")

	cancelled, err := svc.Cancel(ctx, asha, b.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.BookingCancelled || !cancelled.Amount.Decimal.IsZero() {
		t.Fatalf("unexpected cancelled booking: %+v", cancelled)
	}
	freed := mustSlot(t, svc, slot.ID)
	if freed.InUse() || freed.VehicleNumber.Valid || freed.UserName.Valid {
		t.Fatalf("slot not cleared: %+v", freed)
	}

	if _, err := svc.CheckIn(ctx, staffActor, b.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// The slot, the vehicle and the user are all free again.
	mustReserve(t, svc, asha, slot.ID, "KA01AB1234")
}

func TestCancelActiveBookingIsRejected(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	ctx := context.Background()
	slot := mustAddSlot(t, svc, "P001")
	b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")
	if _, err := svc.CheckIn(ctx, staffActor, b.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if _, err := svc.Cancel(ctx, staffActor, b.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if !mustSlot(t, svc, slot.ID).Occupied {
		t.Fatalf("slot must stay occupied")
	}
}

func TestCancelOtherCustomersBooking(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	ctx := context.Background()
	slot := mustAddSlot(t, svc, "P001")
	b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")

	if _, err := svc.Cancel(ctx, ravi, b.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Cancel(ctx, staffActor, b.ID); err != nil {
		t.Fatalf("staff cancel: %v", err)
	}
}

func TestTransitionsOnMissingBooking(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	ctx := context.Background()
	if _, err := svc.CheckIn(ctx, staffActor, 42); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("check in: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.CheckOut(ctx, staffActor, 42); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("check out: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Cancel(ctx, asha, 42); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("cancel: expected ErrInvalidTransition, got %v", err)
	}
}

func TestStaffOnlyTransitions(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	ctx := context.Background()
	slot := mustAddSlot(t, svc, "P001")
	b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")
	if _, err := svc.CheckIn(ctx, asha, b.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.CheckIn(ctx, adminActor, b.ID); err != nil {
		t.Fatalf("admin check in: %v", err)
	}
	if _, err := svc.CheckOut(ctx, asha, b.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDeleteSlotInUse(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	ctx := context.Background()
	slot := mustAddSlot(t, svc, "P001")
	b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")

	if err := svc.DeleteSlot(ctx, adminActor, slot.ID); !errors.Is(err, domain.ErrSlotInUse) {
		t.Fatalf("booked slot: expected ErrSlotInUse, got %v", err)
	}
	if _, err := svc.CheckIn(ctx, staffActor, b.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	before := mustSlot(t, svc, slot.ID)
	if err := svc.DeleteSlot(ctx, adminActor, slot.ID); !errors.Is(err, domain.ErrSlotInUse) {
		t.Fatalf("occupied slot: expected ErrSlotInUse, got %v", err)
	}
	after := mustSlot(t, svc, slot.ID)
	if *after != *before {
		t.Fatalf("rejected delete changed the slot: %+v vs %+v", after, before)
	}

	if _, err := svc.CheckOut(ctx, staffActor, b.ID); err != nil {
		t.Fatalf("check out: %v", err)
	}
	if err := svc.DeleteSlot(ctx, adminActor, slot.ID); err != nil {
		t.Fatalf("delete free slot: %v", err)
	}
	if _, err := svc.GetSlot(ctx, slot.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.DeleteSlot(ctx, adminActor, slot.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing slot, got %v", err)
	}

	// History survives the slot.
	hist, err := svc.GetBooking(ctx, adminActor, b.ID)
	if err != nil || hist.Status != domain.BookingCompleted {
		t.Fatalf("booking history lost: %+v, %v", hist, err)
	}
}

func TestAddSlotValidation(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	ctx := context.Background()
	slot := mustAddSlot(t, svc, " p001 ")
	if slot.Number != "P001" || slot.InUse() {
		t.Fatalf("unexpected slot: %+v", slot)
	}
	if _, err := svc.AddSlot(ctx, adminActor, domain.CreateSlotDTO{Number: "P001"}); !errors.Is(err, domain.ErrDuplicateSlotNumber) {
		t.Fatalf("expected ErrDuplicateSlotNumber, got %v", err)
	}
	if _, err := svc.AddSlot(ctx, adminActor, domain.CreateSlotDTO{Number: "   "}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.AddSlot(ctx, staffActor, domain.CreateSlotDTO{Number: "P002"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteSlot(ctx, staffActor, slot.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestConcurrentReserveSameSlot(t *testing.T) {
	svc, store, _ := newTestParkingService(t)
	slot := mustAddSlot(t, svc, "P001")

	const callers = 16
	actors := make([]domain.Actor, callers)
	for i := range actors {
		actors[i] = domain.Actor{Username: fmt.Sprintf("user%02d", i), Role: domain.RoleCustomer}
	}
	actors = seedAccounts(t, store, actors...)
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Reserve(context.Background(), actors[i], domain.ReserveSlotDTO{
				SlotID:        slot.ID,
				VehicleNumber: fmt.Sprintf("KA01AB%04d", i),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrSlotUnavailable):
		default:
			t.Fatalf("caller %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	live, err := svc.store.Bookings().Find(context.Background(), domain.BookingFilter{Status: string(domain.BookingBooked)})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(live) != 1 {
		t.Fatalf("expected one live booking, got %d", len(live))
	}
}

func TestConcurrentReserveSameVehicleDifferentSlots(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	first := mustAddSlot(t, svc, "P001")
	second := mustAddSlot(t, svc, "P002")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, slotID := range []int{first.ID, second.ID} {
		wg.Add(1)
		go func(i, slotID int) {
			defer wg.Done()
			actor := []domain.Actor{asha, ravi}[i]
			_, errs[i] = svc.Reserve(context.Background(), actor, domain.ReserveSlotDTO{SlotID: slotID, VehicleNumber: "KA01AB1234"})
		}(i, slotID)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			if !errors.Is(err, domain.ErrVehicleAlreadyParked) {
				t.Fatalf("unexpected error %v", err)
			}
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly one rejection, got %d", failures)
	}
}

func TestBookingReads(t *testing.T) {
	svc, _, _ := newTestParkingService(t)
	ctx := context.Background()
	slot := mustAddSlot(t, svc, "P001")
	b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")

	if _, err := svc.GetBooking(ctx, ravi, b.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.GetBooking(ctx, staffActor, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	mine, err := svc.ListBookingsByUser(ctx, asha, "ASHA")
	if err != nil || len(mine) != 1 || mine[0].ID != b.ID {
		t.Fatalf("list mine: %+v, %v", mine, err)
	}
	if _, err := svc.ListBookingsByUser(ctx, ravi, "asha"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	live, err := svc.FindLiveBookingsByVehicle(ctx, staffActor, "ka01ab1234")
	if err != nil || len(live) != 1 || live[0].ID != b.ID {
		t.Fatalf("vehicle lookup: %+v, %v", live, err)
	}
	none, err := svc.FindLiveBookingsByVehicle(ctx, staffActor, "MH12XY0001")
	if err != nil || len(none) != 0 {
		t.Fatalf("vehicle lookup miss: %+v, %v", none, err)
	}
	if _, err := svc.FindLiveBookingsByVehicle(ctx, asha, "KA01AB1234"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestStatusNeverMovesBackward(t *testing.T) {
	svc, _, clock := newTestParkingService(t)
	ctx := context.Background()
	slot := mustAddSlot(t, svc, "P001")
	b := mustReserve(t, svc, asha, slot.ID, "KA01AB1234")
	if _, err := svc.CheckIn(ctx, staffActor, b.ID); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if _, err := svc.CheckIn(ctx, staffActor, b.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second check in: expected ErrInvalidTransition, got %v", err)
	}
	clock.Advance(time.Hour)
	if _, err := svc.CheckOut(ctx, staffActor, b.ID); err != nil {
		t.Fatalf("check out: %v", err)
	}
	for name, op := range map[string]func() error{
		"check in": func() error { _, err := svc.CheckIn(ctx, staffActor, b.ID); return err },
		"cancel":   func() error { _, err := svc.Cancel(ctx, asha, b.ID); return err },
	} {
		if err := op(); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("%s after completion: expected ErrInvalidTransition, got %v", name, err)
		}
	}
	assertFlagsExclusive(t, svc)
}
