// Package memstore keeps venues, bookings and blocked dates in memory. It
// implements the same stores as the Postgres repositories and is used by
// tests and local demos.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"venueslots/internal/calendar"
	"venueslots/internal/domain/blockeddates"
	"venueslots/internal/domain/bookings"
	"venueslots/internal/domain/storage"
	"venueslots/internal/domain/venues"
)

type Store struct {
	mu       sync.Mutex
	venues   map[int64]venues.Venue
	bookings map[int64]bookings.Booking
	blocked  map[blockKey]blockeddates.BlockedDate
	nextID   int64

	lockMu     sync.Mutex
	venueLocks map[int64]*sync.Mutex

	now func() time.Time
}

type blockKey struct {
	venueID int64
	day     calendar.Day
}

func New() *Store {
	return &Store{
		venues:     make(map[int64]venues.Venue),
		bookings:   make(map[int64]bookings.Booking),
		blocked:    make(map[blockKey]blockeddates.BlockedDate),
		venueLocks: make(map[int64]*sync.Mutex),
		now:        time.Now,
	}
}

// Repos returns the store as a storage.Repos.
func (s *Store) Repos() storage.Repos {
	return storage.Repos{
		Venues:       venueStore{s},
		Bookings:     bookingStore{s},
		BlockedDates: blockedStore{s},
	}
}

// WithReservationTx holds a per-venue lock while fn runs, which gives the
// same guarantee as the row lock taken by the Postgres container.
func (s *Store) WithReservationTx(ctx context.Context, venueID int64, fn func(tx storage.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := s.venueLock(venueID)
	l.Lock()
	defer l.Unlock()

	if _, err := (venueStore{s}).GetByID(ctx, venueID); err != nil {
		return err
	}
	return fn(s.Repos())
}

func (s *Store) venueLock(venueID int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.venueLocks[venueID]
	if !ok {
		l = &sync.Mutex{}
		s.venueLocks[venueID] = l
	}
	return l
}

// SetNow replaces the function used for record timestamps.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddVenue stores v, assigning an ID when v.ID is zero.
func (s *Store) AddVenue(v venues.Venue) *venues.Venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		s.nextID++
		v.ID = s.nextID
	}
	now := s.now()
	v.CreatedAt, v.UpdatedAt = now, now
	s.venues[v.ID] = v
	return &v
}

// AddBooking inserts b as is, without any overlap check. Use it to seed
// history such as cancelled or completed bookings.
func (s *Store) AddBooking(b bookings.Booking) *bookings.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	now := s.now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	s.bookings[b.ID] = b
	return &b
}

// Bookings returns every stored booking of a venue, in insertion order.
func (s *Store) Bookings(venueID int64) []bookings.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []bookings.Booking
	for _, b := range s.bookings {
		if b.VenueID == venueID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b bookings.Booking) int { return int(a.ID - b.ID) })
	return out
}

type venueStore struct{ s *Store }

func (r venueStore) GetByID(_ context.Context, venueID int64) (*venues.Venue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.venues[venueID]
	if !ok {
		return nil, venues.ErrVenueNotFound
	}
	return &v, nil
}

func (r venueStore) LockForUpdate(ctx context.Context, venueID int64) error {
	_, err := r.GetByID(ctx, venueID)
	return err
}

type bookingStore struct{ s *Store }

func (r bookingStore) ListActiveInRange(_ context.Context, venueID int64, from, to calendar.Day) ([]bookings.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []bookings.Booking
	for _, b := range r.s.bookings {
		if b.VenueID == venueID && b.Status.Active() && !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b bookings.Booking) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.StartMinute - b.StartMinute
	})
	return out, nil
}

func (r bookingStore) ListActiveForDay(ctx context.Context, venueID int64, day calendar.Day) ([]bookings.Booking, error) {
	return r.ListActiveInRange(ctx, venueID, day, day)
}

// Create rejects an active booking that intersects another active booking
// on the same venue and day, like the exclusion constraint does.
func (r bookingStore) Create(_ context.Context, b *bookings.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.Status.Active() {
		for _, other := range r.s.bookings {
			if other.VenueID == b.VenueID && other.Date == b.Date && other.Status.Active() &&
				other.Overlaps(b.StartMinute, b.EndMinute) {
				return bookings.ErrOverlap
			}
		}
	}
	r.s.nextID++
	b.ID = r.s.nextID
	now := r.s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.bookings[b.ID] = *b
	return nil
}

func (r bookingStore) GetByID(_ context.Context, bookingID int64) (*bookings.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[bookingID]
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	return &b, nil
}

func (r bookingStore) Transition(_ context.Context, bookingID int64, from []bookings.Status, to bookings.Status) (*bookings.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[bookingID]
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	if !slices.Contains(from, b.Status) {
		return nil, bookings.ErrInvalidTransition
	}
	b.Status = to
	b.UpdatedAt = r.s.now()
	r.s.bookings[bookingID] = b
	return &b, nil
}

func (r bookingStore) MarkCompleted(_ context.Context, today calendar.Day, nowMinute int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, b := range r.s.bookings {
		if b.Status != bookings.StatusConfirmed {
			continue
		}
		if b.Date.Before(today) || (b.Date == today && b.EndMinute <= nowMinute) {
			b.Status = bookings.StatusCompleted
			b.UpdatedAt = r.s.now()
			r.s.bookings[id] = b
			n++
		}
	}
	return n, nil
}

func (r bookingStore) ExpirePending(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, b := range r.s.bookings {
		if b.Status == bookings.StatusPending && b.CreatedAt.Before(cutoff) {
			b.Status = bookings.StatusCancelled
			b.UpdatedAt = r.s.now()
			r.s.bookings[id] = b
			n++
		}
	}
	return n, nil
}

type blockedStore struct{ s *Store }

func (r blockedStore) IsBlocked(_ context.Context, venueID int64, day calendar.Day) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.blocked[blockKey{venueID, day}]
	return ok, nil
}

func (r blockedStore) ListInRange(_ context.Context, venueID int64, from, to calendar.Day) ([]blockeddates.BlockedDate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []blockeddates.BlockedDate
	for k, bd := range r.s.blocked {
		if k.venueID == venueID && !k.day.Before(from) && !k.day.After(to) {
			out = append(out, bd)
		}
	}
	slices.SortFunc(out, func(a, b blockeddates.BlockedDate) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (r blockedStore) Block(_ context.Context, venueID int64, day calendar.Day, reason string) (*blockeddates.BlockedDate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := blockKey{venueID, day}
	bd, ok := r.s.blocked[k]
	if !ok {
		bd = blockeddates.BlockedDate{VenueID: venueID, Date: day, CreatedAt: r.s.now()}
	}
	bd.Reason = reason
	r.s.blocked[k] = bd
	return &bd, nil
}

func (r blockedStore) Unblock(_ context.Context, venueID int64, day calendar.Day) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := blockKey{venueID, day}
	_, ok := r.s.blocked[k]
	delete(r.s.blocked, k)
	return ok, nil
}

func (r blockedStore) Toggle(_ context.Context, venueID int64, day calendar.Day, reason string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := blockKey{venueID, day}
	if _, ok := r.s.blocked[k]; ok {
		delete(r.s.blocked, k)
		return false, nil
	}
	r.s.blocked[k] = blockeddates.BlockedDate{VenueID: venueID, Date: day, Reason: reason, CreatedAt: r.s.now()}
	return true, nil
}

var (
	_ storage.Transactor = (*Store)(nil)
	_ venues.Store       = venueStore{}
	_ bookings.Store     = bookingStore{}
	_ blockeddates.Store = blockedStore{}
)
