package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"venueslots/internal/calendar"
	"venueslots/internal/domain/blockeddates"
	"venueslots/internal/domain/bookings"
	"venueslots/internal/domain/storage"
	"venueslots/internal/domain/venues"
	"venueslots/internal/memstore"
)

const (
	ownerID = int64(1)
	guestID = int64(2)
)

var kathmandu = mustLocation("Asia/Kathmandu")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone(name, 5*3600+45*60)
	}
	return loc
}

type fixture struct {
	engine *Engine
	store  *memstore.Store
	venue  *venues.Venue
}

// newFixture builds an engine over a venue open 08:00-20:00 every day with a
// one hour minimum, at the given local wall-clock instant.
func newFixture(t *testing.T, now string, opts ...func(*Options)) *fixture {
	t.Helper()
	at, err := time.ParseInLocation("2006-01-02 15:04", now, kathmandu)
	if err != nil {
		t.Fatalf("bad fixture time %q: %v", now, err)
	}
	store := memstore.New()
	venue := store.AddVenue(venues.Venue{
		OwnerID:         ownerID,
		Name:            "Futsal Arena",
		MinBookingHours: 1,
		Hours:           venues.Daily(8*60, 20*60),
	})
	o := Options{
		Location: kathmandu,
		Clock:    calendar.FixedClock{At: at},
	}
	for _, fn := range opts {
		fn(&o)
	}
	return &fixture{
		engine: New(store.Repos(), store, o),
		store:  store,
		venue:  venue,
	}
}

func (f *fixture) book(t *testing.T, date, start, end string, status bookings.Status) *bookings.Booking {
	t.Helper()
	return f.store.AddBooking(bookings.Booking{
		VenueID:     f.venue.ID,
		UserID:      guestID,
		Date:        calendar.MustParse(date),
		StartMinute: mustClock(start),
		EndMinute:   mustClock(end),
		Guests:      1,
		Status:      status,
	})
}

func containsSlot(slots []Interval, s Interval) bool {
	for _, x := range slots {
		if x == s {
			return true
		}
	}
	return false
}

func TestDayAvailabilityOpenDay(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	day, err := f.engine.DayAvailability(context.Background(), f.venue.ID, calendar.MustParse("2025-06-10"))
	if err != nil {
		t.Fatalf("DayAvailability: %v", err)
	}
	if day.Status != StatusAvailable {
		t.Fatalf("status = %q, want %q", day.Status, StatusAvailable)
	}
	if len(day.Slots) != 24 {
		t.Fatalf("got %d slots, want 24", len(day.Slots))
	}
	if day.Slots[0] != iv("08:00", "08:30") || day.Slots[23] != iv("19:30", "20:00") {
		t.Fatalf("slots run %v..%v, want 08:00-08:30..19:30-20:00", day.Slots[0], day.Slots[23])
	}
	if day.BookedRanges == nil || len(day.BookedRanges) != 0 {
		t.Fatalf("booked ranges = %#v, want empty", day.BookedRanges)
	}
}

func TestDayAvailabilityPartiallyBooked(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	f.book(t, "2025-06-10", "10:00", "12:00", bookings.StatusConfirmed)

	day, err := f.engine.DayAvailability(context.Background(), f.venue.ID, calendar.MustParse("2025-06-10"))
	if err != nil {
		t.Fatalf("DayAvailability: %v", err)
	}
	if day.Status != StatusPartiallyBooked {
		t.Fatalf("status = %q, want %q", day.Status, StatusPartiallyBooked)
	}
	booked := iv("10:00", "12:00")
	for _, s := range day.Slots {
		if s.Start < booked.End && booked.Start < s.End {
			t.Errorf("slot %v overlaps booking %v", s, booked)
		}
	}
	for _, want := range []Interval{iv("09:30", "10:00"), iv("12:00", "12:30")} {
		if !containsSlot(day.Slots, want) {
			t.Errorf("missing slot %v", want)
		}
	}
	if len(day.BookedRanges) != 1 || day.BookedRanges[0] != booked {
		t.Errorf("booked ranges = %v, want [%v]", day.BookedRanges, booked)
	}
}

func TestDayAvailabilityFullyBooked(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	f.book(t, "2025-06-10", "08:00", "20:00", bookings.StatusPending)

	day, err := f.engine.DayAvailability(context.Background(), f.venue.ID, calendar.MustParse("2025-06-10"))
	if err != nil {
		t.Fatalf("DayAvailability: %v", err)
	}
	if day.Status != StatusFullyBooked {
		t.Fatalf("status = %q, want %q", day.Status, StatusFullyBooked)
	}
	if day.Slots == nil || len(day.Slots) != 0 {
		t.Fatalf("slots = %#v, want empty", day.Slots)
	}
}

func TestDayAvailabilityBlockedWins(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	ctx := context.Background()
	f.book(t, "2025-06-10", "10:00", "12:00", bookings.StatusConfirmed)
	if _, err := f.engine.BlockDate(ctx, f.venue.ID, calendar.MustParse("2025-06-10"), "maintenance"); err != nil {
		t.Fatalf("BlockDate: %v", err)
	}

	day, err := f.engine.DayAvailability(ctx, f.venue.ID, calendar.MustParse("2025-06-10"))
	if err != nil {
		t.Fatalf("DayAvailability: %v", err)
	}
	if day.Status != StatusBlocked || len(day.Slots) != 0 {
		t.Fatalf("got status %q with %d slots, want blocked with none", day.Status, len(day.Slots))
	}
}

func TestDayAvailabilityClosedWeekday(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	hours := venues.Daily(8*60, 20*60)
	hours[time.Saturday] = venues.DayHours{Closed: true}
	f.venue = f.store.AddVenue(venues.Venue{OwnerID: ownerID, MinBookingHours: 1, Hours: hours})

	// 2025-06-14 is a Saturday.
	day, err := f.engine.DayAvailability(context.Background(), f.venue.ID, calendar.MustParse("2025-06-14"))
	if err != nil {
		t.Fatalf("DayAvailability: %v", err)
	}
	if day.Status != StatusClosed {
		t.Fatalf("status = %q, want %q", day.Status, StatusClosed)
	}
	friday, err := f.engine.DayAvailability(context.Background(), f.venue.ID, calendar.MustParse("2025-06-13"))
	if err != nil {
		t.Fatalf("DayAvailability: %v", err)
	}
	if friday.Status != StatusAvailable {
		t.Fatalf("friday status = %q, want %q", friday.Status, StatusAvailable)
	}
}

func TestCancelledAndCompletedBookingsDoNotOccupy(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	f.book(t, "2025-06-10", "10:00", "12:00", bookings.StatusCancelled)
	f.book(t, "2025-06-10", "14:00", "16:00", bookings.StatusCompleted)

	day, err := f.engine.DayAvailability(context.Background(), f.venue.ID, calendar.MustParse("2025-06-10"))
	if err != nil {
		t.Fatalf("DayAvailability: %v", err)
	}
	if day.Status != StatusAvailable || len(day.Slots) != 24 {
		t.Fatalf("got %q with %d slots, want available with 24", day.Status, len(day.Slots))
	}
}

func TestMonthCalendarLength(t *testing.T) {
	f := newFixture(t, "2024-01-01 09:00")
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2025, time.January, 31},
		{2024, time.February, 29},
		{2025, time.February, 28},
		{2025, time.April, 30},
	}
	for _, tc := range cases {
		cal, err := f.engine.MonthCalendar(context.Background(), f.venue.ID, tc.year, tc.month)
		if err != nil {
			t.Fatalf("MonthCalendar(%d, %s): %v", tc.year, tc.month, err)
		}
		if len(cal) != tc.want {
			t.Errorf("MonthCalendar(%d, %s) has %d days, want %d", tc.year, tc.month, len(cal), tc.want)
		}
		last := calendar.Date(tc.year, tc.month, tc.want)
		if _, ok := cal[last]; !ok {
			t.Errorf("MonthCalendar(%d, %s) is missing %s", tc.year, tc.month, last)
		}
	}
}

func TestRangeAvailabilityRejectsBadRanges(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00", func(o *Options) { o.MaxRangeDays = 10 })
	ctx := context.Background()

	_, err := f.engine.RangeAvailability(ctx, f.venue.ID, calendar.MustParse("2025-06-10"), calendar.MustParse("2025-06-09"))
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("inverted range error = %v, want ErrInvalidTimeRange", err)
	}
	_, err = f.engine.RangeAvailability(ctx, f.venue.ID, calendar.MustParse("2025-06-01"), calendar.MustParse("2025-06-11"))
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("oversized range error = %v, want ErrInvalidTimeRange", err)
	}
	cal, err := f.engine.RangeAvailability(ctx, f.venue.ID, calendar.MustParse("2025-06-01"), calendar.MustParse("2025-06-10"))
	if err != nil || len(cal) != 10 {
		t.Fatalf("ten day range: %d days, err %v", len(cal), err)
	}
	if _, err := f.engine.RangeAvailability(ctx, 999, calendar.MustParse("2025-06-01"), calendar.MustParse("2025-06-02")); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("unknown venue error = %v, want ErrResourceNotFound", err)
	}
}

func TestReserveConflictLeavesLedgerUnchanged(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	f.book(t, "2025-06-10", "10:00", "12:00", bookings.StatusConfirmed)
	before := f.store.Bookings(f.venue.ID)

	_, err := f.engine.Reserve(context.Background(), ReserveRequest{
		VenueID:     f.venue.ID,
		RequesterID: guestID + 1,
		Date:        calendar.MustParse("2025-06-10"),
		Start:       mustClock("11:00"),
		End:         mustClock("13:00"),
	})
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("Reserve error = %v, want ErrSlotConflict", err)
	}
	if after := f.store.Bookings(f.venue.ID); len(after) != len(before) {
		t.Fatalf("ledger changed: %d bookings before, %d after", len(before), len(after))
	}
}

func TestReserveAdjacentRangesSucceed(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	f.book(t, "2025-06-10", "10:00", "12:00", bookings.StatusConfirmed)

	b, err := f.engine.Reserve(context.Background(), ReserveRequest{
		VenueID:     f.venue.ID,
		RequesterID: guestID,
		Date:        calendar.MustParse("2025-06-10"),
		Start:       mustClock("12:00"),
		End:         mustClock("13:00"),
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if b.Status != bookings.StatusPending || b.Reference == "" || b.ID == 0 {
		t.Fatalf("unexpected booking %+v", b)
	}
}

func TestReserveInstantBookConfirms(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	f.venue = f.store.AddVenue(venues.Venue{OwnerID: ownerID, MinBookingHours: 1, InstantBook: true, Hours: venues.Daily(480, 1200)})

	b, err := f.engine.Reserve(context.Background(), ReserveRequest{
		VenueID: f.venue.ID, RequesterID: guestID,
		Date: calendar.MustParse("2025-06-10"), Start: 600, End: 660,
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if b.Status != bookings.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", b.Status)
	}
}

func TestReserveValidation(t *testing.T) {
	f := newFixture(t, "2025-06-10 11:00")
	f.venue = f.store.AddVenue(venues.Venue{OwnerID: ownerID, MinBookingHours: 1, MaxBookingHours: 3, Hours: venues.Daily(480, 1200)})
	date := calendar.MustParse("2025-06-11")

	cases := []struct {
		name string
		req  ReserveRequest
		want error
	}{
		{"self booking", ReserveRequest{RequesterID: ownerID, Date: date, Start: 600, End: 660}, ErrSelfBookingNotAllowed},
		{"start after end", ReserveRequest{RequesterID: guestID, Date: date, Start: 660, End: 600}, ErrInvalidTimeRange},
		{"empty range", ReserveRequest{RequesterID: guestID, Date: date, Start: 600, End: 600}, ErrInvalidTimeRange},
		{"before opening", ReserveRequest{RequesterID: guestID, Date: date, Start: 420, End: 540}, ErrInvalidTimeRange},
		{"after closing", ReserveRequest{RequesterID: guestID, Date: date, Start: 1140, End: 1260}, ErrInvalidTimeRange},
		{"shorter than minimum", ReserveRequest{RequesterID: guestID, Date: date, Start: 600, End: 630}, ErrInvalidTimeRange},
		{"longer than maximum", ReserveRequest{RequesterID: guestID, Date: date, Start: 600, End: 900}, ErrInvalidTimeRange},
		{"past day", ReserveRequest{RequesterID: guestID, Date: calendar.MustParse("2025-06-09"), Start: 600, End: 660}, ErrInvalidTimeRange},
		{"earlier today", ReserveRequest{RequesterID: guestID, Date: calendar.MustParse("2025-06-10"), Start: 600, End: 720}, ErrInvalidTimeRange},
		{"missing date", ReserveRequest{RequesterID: guestID, Start: 600, End: 660}, ErrInvalidDateFormat},
		{"unknown venue", ReserveRequest{VenueID: 999, RequesterID: guestID, Date: date, Start: 600, End: 660}, ErrResourceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			if req.VenueID == 0 {
				req.VenueID = f.venue.ID
			}
			if _, err := f.engine.Reserve(context.Background(), req); !errors.Is(err, tc.want) {
				t.Fatalf("Reserve error = %v, want %v", err, tc.want)
			}
		})
	}

	// Later today is still bookable.
	if _, err := f.engine.Reserve(context.Background(), ReserveRequest{
		VenueID: f.venue.ID, RequesterID: guestID,
		Date: calendar.MustParse("2025-06-10"), Start: 720, End: 780,
	}); err != nil {
		t.Fatalf("Reserve later today: %v", err)
	}
}

func TestReserveBlockedDate(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	ctx := context.Background()
	day := calendar.MustParse("2025-06-10")
	if _, err := f.engine.BlockDate(ctx, f.venue.ID, day, ""); err != nil {
		t.Fatalf("BlockDate: %v", err)
	}
	_, err := f.engine.Reserve(ctx, ReserveRequest{VenueID: f.venue.ID, RequesterID: guestID, Date: day, Start: 600, End: 660})
	if !errors.Is(err, ErrBlockedDate) {
		t.Fatalf("Reserve error = %v, want ErrBlockedDate", err)
	}
}

func TestConcurrentReserveExactlyOneWins(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	const attempts = 16

	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		mu        sync.Mutex
		wins      int
		conflicts int
		other     []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(requester int64) {
			defer wg.Done()
			<-start
			_, err := f.engine.Reserve(context.Background(), ReserveRequest{
				VenueID:     f.venue.ID,
				RequesterID: requester,
				Date:        calendar.MustParse("2025-06-10"),
				Start:       mustClock("10:00"),
				End:         mustClock("12:00"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrSlotConflict):
				conflicts++
			default:
				other = append(other, err)
			}
		}(guestID + int64(i))
	}
	close(start)
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if wins != 1 || conflicts != attempts-1 {
		t.Fatalf("wins = %d, conflicts = %d, want 1 and %d", wins, conflicts, attempts-1)
	}
	if n := len(f.store.Bookings(f.venue.ID)); n != 1 {
		t.Fatalf("ledger holds %d bookings, want 1", n)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	ctx := context.Background()
	day := calendar.MustParse("2025-06-10")
	req := ReserveRequest{VenueID: f.venue.ID, RequesterID: guestID, Date: day, Start: 600, End: 720}

	b, err := f.engine.Reserve(ctx, req)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if ok, _ := f.engine.CheckSlotAvailable(ctx, f.venue.ID, day, 600, 720); ok {
		t.Fatal("slot still reported available after reserve")
	}

	if _, err := f.engine.Cancel(ctx, b.ID, guestID+5); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("Cancel by stranger error = %v, want ErrNotPermitted", err)
	}
	cancelled, err := f.engine.Cancel(ctx, b.ID, guestID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != bookings.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", cancelled.Status)
	}
	if _, err := f.engine.Cancel(ctx, b.ID, guestID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Cancel error = %v, want ErrInvalidTransition", err)
	}

	ok, err := f.engine.CheckSlotAvailable(ctx, f.venue.ID, day, 600, 720)
	if err != nil || !ok {
		t.Fatalf("CheckSlotAvailable after cancel = %v, %v; want true", ok, err)
	}
	if _, err := f.engine.Reserve(ctx, ReserveRequest{VenueID: f.venue.ID, RequesterID: guestID + 1, Date: day, Start: 600, End: 720}); err != nil {
		t.Fatalf("Reserve after cancel: %v", err)
	}
	if n := len(f.store.Bookings(f.venue.ID)); n != 2 {
		t.Fatalf("ledger holds %d bookings, want cancelled history plus new booking", n)
	}
}

func TestConfirmOwnerOnly(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	ctx := context.Background()
	b := f.book(t, "2025-06-10", "10:00", "12:00", bookings.StatusPending)

	if _, err := f.engine.Confirm(ctx, b.ID, guestID); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("Confirm by guest error = %v, want ErrNotPermitted", err)
	}
	got, err := f.engine.Confirm(ctx, b.ID, ownerID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got.Status != bookings.StatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got.Status)
	}
	if _, err := f.engine.Confirm(ctx, b.ID, ownerID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Confirm error = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.engine.Confirm(ctx, 999, ownerID); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("Confirm unknown error = %v, want ErrBookingNotFound", err)
	}
}

func TestUnblockIsIdempotent(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	ctx := context.Background()
	day := calendar.MustParse("2025-06-10")

	for i := 0; i < 2; i++ {
		if err := f.engine.UnblockDate(ctx, f.venue.ID, day); err != nil {
			t.Fatalf("UnblockDate #%d: %v", i+1, err)
		}
	}
	if _, err := f.engine.BlockDate(ctx, f.venue.ID, day, "event"); err != nil {
		t.Fatalf("BlockDate: %v", err)
	}
	if _, err := f.engine.BlockDate(ctx, f.venue.ID, day, "private event"); err != nil {
		t.Fatalf("BlockDate again: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.engine.UnblockDate(ctx, f.venue.ID, day); err != nil {
			t.Fatalf("UnblockDate after block #%d: %v", i+1, err)
		}
	}
	got, err := f.engine.DayAvailability(ctx, f.venue.ID, day)
	if err != nil {
		t.Fatalf("DayAvailability: %v", err)
	}
	if got.Status != StatusAvailable {
		t.Fatalf("status = %q, want available", got.Status)
	}
}

func TestToggleBlock(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	ctx := context.Background()
	day := calendar.MustParse("2025-06-10")

	for i, want := range []bool{true, false, true} {
		got, err := f.engine.ToggleBlock(ctx, f.venue.ID, day, "")
		if err != nil {
			t.Fatalf("ToggleBlock #%d: %v", i+1, err)
		}
		if got != want {
			t.Fatalf("ToggleBlock #%d = %v, want %v", i+1, got, want)
		}
	}
	if _, err := f.engine.ToggleBlock(ctx, 999, day, ""); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("ToggleBlock unknown venue error = %v, want ErrResourceNotFound", err)
	}
}

// countingTx counts units of work per venue on top of another transactor.
type countingTx struct {
	inner storage.Transactor
	mu    sync.Mutex
	calls map[int64]int
}

func (c *countingTx) WithReservationTx(ctx context.Context, venueID int64, fn func(tx storage.Repos) error) error {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[int64]int)
	}
	c.calls[venueID]++
	c.mu.Unlock()
	return c.inner.WithReservationTx(ctx, venueID, fn)
}

func TestConcurrentTogglesAreSerialized(t *testing.T) {
	f := newFixture(t, "2025-06-01 09:00")
	tx := &countingTx{inner: f.store}
	f.engine.tx = tx
	ctx := context.Background()
	day := calendar.MustParse("2025-06-10")

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		blocked int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.engine.ToggleBlock(ctx, f.venue.ID, day, "")
			if err != nil {
				t.Errorf("ToggleBlock: %v", err)
				return
			}
			if got {
				mu.Lock()
				blocked++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if blocked != n/2 {
		t.Fatalf("%d of %d toggles reported blocked, want %d", blocked, n, n/2)
	}
	if tx.calls[f.venue.ID] != n {
		t.Fatalf("toggles through the venue transaction = %d, want %d", tx.calls[f.venue.ID], n)
	}
	da, err := f.engine.DayAvailability(ctx, f.venue.ID, day)
	if err != nil {
		t.Fatalf("DayAvailability: %v", err)
	}
	if da.Status != StatusAvailable {
		t.Fatalf("status after an even number of toggles = %q, want available", da.Status)
	}

	if _, err := f.engine.BlockDate(ctx, f.venue.ID, day, "maintenance"); err != nil {
		t.Fatalf("BlockDate: %v", err)
	}
	if err := f.engine.UnblockDate(ctx, f.venue.ID, day); err != nil {
		t.Fatalf("UnblockDate: %v", err)
	}
	if tx.calls[f.venue.ID] != n+2 {
		t.Fatalf("block and unblock ran outside the venue transaction: calls = %d", tx.calls[f.venue.ID])
	}
}

func TestSweep(t *testing.T) {
	f := newFixture(t, "2025-06-10 13:00", func(o *Options) { o.PendingHold = time.Hour })
	ctx := context.Background()
	clockNow := time.Date(2025, 6, 10, 13, 0, 0, 0, kathmandu)

	done := f.book(t, "2025-06-10", "10:00", "12:00", bookings.StatusConfirmed)
	running := f.book(t, "2025-06-10", "12:00", "14:00", bookings.StatusConfirmed)
	yesterday := f.book(t, "2025-06-09", "18:00", "19:00", bookings.StatusConfirmed)
	stale := f.store.AddBooking(bookings.Booking{
		VenueID: f.venue.ID, UserID: guestID, Date: calendar.MustParse("2025-06-12"),
		StartMinute: 600, EndMinute: 660, Status: bookings.StatusPending,
		CreatedAt: clockNow.Add(-2 * time.Hour),
	})
	fresh := f.store.AddBooking(bookings.Booking{
		VenueID: f.venue.ID, UserID: guestID, Date: calendar.MustParse("2025-06-12"),
		StartMinute: 700, EndMinute: 760, Status: bookings.StatusPending,
		CreatedAt: clockNow.Add(-10 * time.Minute),
	})

	res, err := f.engine.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Completed != 2 || res.Expired != 1 {
		t.Fatalf("Sweep = %+v, want 2 completed and 1 expired", res)
	}

	want := map[int64]bookings.Status{
		done.ID:      bookings.StatusCompleted,
		yesterday.ID: bookings.StatusCompleted,
		running.ID:   bookings.StatusConfirmed,
		stale.ID:     bookings.StatusCancelled,
		fresh.ID:     bookings.StatusPending,
	}
	for _, b := range f.store.Bookings(f.venue.ID) {
		if b.Status != want[b.ID] {
			t.Errorf("booking %d status = %s, want %s", b.ID, b.Status, want[b.ID])
		}
	}

	again, err := f.engine.Sweep(ctx)
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if again.Completed != 0 || again.Expired != 0 {
		t.Fatalf("second Sweep = %+v, want no changes", again)
	}
}

// recordingCache keys months by generation the way the Redis cache does.
type recordingCache struct {
	mu          sync.Mutex
	epoch       int
	versions    map[int64]int
	months      map[string]Calendar
	sets        int
	invalidated []int64
}

func (c *recordingCache) key(gen string, year int, month time.Month) string {
	return fmt.Sprintf("%s:%04d-%02d", gen, year, int(month))
}

func (c *recordingCache) GetMonth(_ context.Context, venueID int64, year int, month time.Month) (Calendar, string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := fmt.Sprintf("%d:%d:%d", c.epoch, venueID, c.versions[venueID])
	cal, ok := c.months[c.key(gen, year, month)]
	return cal, gen, ok, nil
}

func (c *recordingCache) SetMonth(_ context.Context, _ int64, year int, month time.Month, gen string, cal Calendar) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.months == nil {
		c.months = make(map[string]Calendar)
	}
	c.months[c.key(gen, year, month)] = cal
	c.sets++
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, venueID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions == nil {
		c.versions = make(map[int64]int)
	}
	c.versions[venueID]++
	c.invalidated = append(c.invalidated, venueID)
	return nil
}

func (c *recordingCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	return nil
}

func TestMonthCalendarCacheInvalidatedByReserve(t *testing.T) {
	cache := &recordingCache{}
	f := newFixture(t, "2025-06-01 09:00", func(o *Options) { o.Cache = cache })
	ctx := context.Background()

	if _, err := f.engine.MonthCalendar(ctx, f.venue.ID, 2025, time.June); err != nil {
		t.Fatalf("MonthCalendar: %v", err)
	}
	if _, err := f.engine.MonthCalendar(ctx, f.venue.ID, 2025, time.June); err != nil {
		t.Fatalf("MonthCalendar: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1 (second read served from cache)", cache.sets)
	}

	day := calendar.MustParse("2025-06-10")
	if _, err := f.engine.Reserve(ctx, ReserveRequest{VenueID: f.venue.ID, RequesterID: guestID, Date: day, Start: 480, End: 1200}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != f.venue.ID {
		t.Fatalf("invalidated = %v, want [%d]", cache.invalidated, f.venue.ID)
	}
	cal, err := f.engine.MonthCalendar(ctx, f.venue.ID, 2025, time.June)
	if err != nil {
		t.Fatalf("MonthCalendar: %v", err)
	}
	if cal[day].Status != StatusFullyBooked {
		t.Fatalf("status after reserve = %q, want fully-booked", cal[day].Status)
	}
}

// hookedBlockedDates runs after once the first time ListInRange returns,
// which is inside RangeAvailability after both ledger reads.
type hookedBlockedDates struct {
	blockeddates.Store
	once  sync.Once
	after func()
}

func (h *hookedBlockedDates) ListInRange(ctx context.Context, venueID int64, from, to calendar.Day) ([]blockeddates.BlockedDate, error) {
	out, err := h.Store.ListInRange(ctx, venueID, from, to)
	h.once.Do(h.after)
	return out, err
}

func TestMonthCalendarNotCachedStaleWhenReserveLandsMidCompute(t *testing.T) {
	cache := &recordingCache{}
	f := newFixture(t, "2025-06-01 09:00", func(o *Options) { o.Cache = cache })
	ctx := context.Background()
	day := calendar.MustParse("2025-06-10")

	hook := &hookedBlockedDates{Store: f.store.Repos().BlockedDates}
	hook.after = func() {
		if _, err := f.engine.Reserve(ctx, ReserveRequest{VenueID: f.venue.ID, RequesterID: guestID, Date: day, Start: 600, End: 720}); err != nil {
			t.Errorf("Reserve: %v", err)
		}
	}
	f.engine.repos.BlockedDates = hook

	first, err := f.engine.MonthCalendar(ctx, f.venue.ID, 2025, time.June)
	if err != nil {
		t.Fatalf("MonthCalendar: %v", err)
	}
	if first[day].Status != StatusAvailable {
		t.Fatalf("first read status = %q, want available (computed before the booking)", first[day].Status)
	}

	second, err := f.engine.MonthCalendar(ctx, f.venue.ID, 2025, time.June)
	if err != nil {
		t.Fatalf("MonthCalendar: %v", err)
	}
	got := second[day]
	if got.Status != StatusPartiallyBooked || len(got.BookedRanges) != 1 || got.BookedRanges[0] != (Interval{Start: 600, End: 720}) {
		t.Fatalf("second read = %q booked=%v, want partially-booked with 10:00-12:00", got.Status, got.BookedRanges)
	}
}

func TestTodayIsInVenueTime(t *testing.T) {
	// 18:20 UTC on June 30 is already July 1 in Kathmandu.
	at := time.Date(2025, 6, 30, 18, 20, 0, 0, time.UTC)
	e := New(memstore.New().Repos(), memstore.New(), Options{Location: kathmandu, Clock: calendar.FixedClock{At: at}})
	if got := e.Today(); got != calendar.MustParse("2025-07-01") {
		t.Fatalf("Today = %s, want 2025-07-01", got)
	}
}
