package main

import (
	"errors"
	"net/http"
	"strconv"

	"venueslots/internal/availability"
	"venueslots/internal/calendar"

	"github.com/go-chi/chi/v5"
)

type ReserveBookingPayload struct {
	Date      string  `json:"date" validate:"required,day"`
	StartTime string  `json:"start_time" validate:"required,clock"`
	EndTime   string  `json:"end_time" validate:"required,clock"`
	Guests    int     `json:"guests" validate:"omitempty,min=1,max=500"`
	Note      *string `json:"note" validate:"omitempty,max=500"`
}

// reserveHandler godoc
//
//	@Summary		Reserve a time range
//	@Description	Books [start_time, end_time) on date. Instant-book venues confirm immediately, others leave the booking PENDING.
//	@Tags			Bookings
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		int						true	"Venue ID"
//	@Param			payload	body		ReserveBookingPayload	true	"Booking"
//	@Success		201		{object}	bookings.Booking
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		403		{object}	error	"Owners cannot book their own venue"
//	@Failure		404		{object}	error	"Venue not found"
//	@Failure		409		{object}	error	"Slot taken or date blocked"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/bookings [post]
func (app *application) reserveHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ReserveBookingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// Validate has already checked the formats.
	day, _ := calendar.Parse(payload.Date)
	start, _ := calendar.ParseClock(payload.StartTime)
	end, _ := calendar.ParseClock(payload.EndTime)

	booking, err := app.engine.Reserve(r.Context(), availability.ReserveRequest{
		VenueID:     venueID,
		RequesterID: getRequesterID(r),
		Date:        day,
		Start:       start,
		End:         end,
		Guests:      payload.Guests,
		Note:        payload.Note,
	})
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, booking); err != nil {
		app.internalServerError(w, r, err)
	}
}

func bookingIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid booking ID")
	}
	return id, nil
}

// cancelBookingHandler godoc
//
//	@Summary		Cancel a booking
//	@Description	The guest or the venue owner may cancel a PENDING or CONFIRMED booking. The range becomes bookable again.
//	@Tags			Bookings
//	@Produce		json
//	@Param			bookingID	path		int	true	"Booking ID"
//	@Success		200			{object}	bookings.Booking
//	@Failure		403			{object}	error	"Forbidden"
//	@Failure		404			{object}	error	"Booking not found"
//	@Failure		409			{object}	error	"Booking already cancelled or completed"
//	@Security		ApiKeyAuth
//	@Router			/bookings/{bookingID}/cancel [post]
func (app *application) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := bookingIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	booking, err := app.engine.Cancel(r.Context(), bookingID, getRequesterID(r))
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, booking); err != nil {
		app.internalServerError(w, r, err)
	}
}

// confirmBookingHandler godoc
//
//	@Summary		Confirm a pending booking
//	@Tags			Bookings
//	@Produce		json
//	@Param			bookingID	path		int	true	"Booking ID"
//	@Success		200			{object}	bookings.Booking
//	@Failure		403			{object}	error	"Only the venue owner can confirm"
//	@Failure		404			{object}	error	"Booking not found"
//	@Failure		409			{object}	error	"Booking is not pending"
//	@Security		ApiKeyAuth
//	@Router			/bookings/{bookingID}/confirm [post]
func (app *application) confirmBookingHandler(w http.ResponseWriter, r *http.Request) {
	bookingID, err := bookingIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	booking, err := app.engine.Confirm(r.Context(), bookingID, getRequesterID(r))
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, booking); err != nil {
		app.internalServerError(w, r, err)
	}
}
