package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"venueslots/internal/availability"
	"venueslots/internal/calendar"

	"github.com/go-chi/chi/v5"
)

func venueIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "venueID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid venue ID")
	}
	return id, nil
}

// dayQuery reads a required YYYY-MM-DD query parameter.
func dayQuery(r *http.Request, name string) (calendar.Day, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return calendar.Day{}, fmt.Errorf("%w: missing %s", availability.ErrInvalidDateFormat, name)
	}
	return calendar.Parse(s)
}

// dayAvailabilityHandler godoc
//
//	@Summary		Availability of one day
//	@Description	Returns the day's status, bookable slots and booked ranges.
//	@Tags			Availability
//	@Produce		json
//	@Param			venueID	path		int		true	"Venue ID"
//	@Param			date	query		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	availability.DayAvailability
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		404		{object}	error	"Venue not found"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Router			/venues/{venueID}/availability [get]
func (app *application) dayAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	day, err := dayQuery(r, "date")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	da, err := app.engine.DayAvailability(r.Context(), venueID, day)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, da); err != nil {
		app.internalServerError(w, r, err)
	}
}

// rangeAvailabilityHandler godoc
//
//	@Summary		Availability of a date range
//	@Description	Returns one entry per day from `from` to `to`, both inclusive.
//	@Tags			Availability
//	@Produce		json
//	@Param			venueID	path		int		true	"Venue ID"
//	@Param			from	query		string	true	"First day (YYYY-MM-DD)"
//	@Param			to		query		string	true	"Last day (YYYY-MM-DD)"
//	@Success		200		{object}	availability.Calendar
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		404		{object}	error	"Venue not found"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Router			/venues/{venueID}/availability/range [get]
func (app *application) rangeAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	from, err := dayQuery(r, "from")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	to, err := dayQuery(r, "to")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	cal, err := app.engine.RangeAvailability(r.Context(), venueID, from, to)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, cal); err != nil {
		app.internalServerError(w, r, err)
	}
}

// monthCalendarHandler godoc
//
//	@Summary		Month calendar
//	@Description	Returns every day of the month keyed by date.
//	@Tags			Availability
//	@Produce		json
//	@Param			venueID	path		int	true	"Venue ID"
//	@Param			year	query		int	true	"Year"
//	@Param			month	query		int	true	"Month (1-12)"
//	@Success		200		{object}	availability.Calendar
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		404		{object}	error	"Venue not found"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Router			/venues/{venueID}/calendar [get]
func (app *application) monthCalendarHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid year"))
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid month"))
		return
	}

	cal, err := app.engine.MonthCalendar(r.Context(), venueID, year, time.Month(month))
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, cal); err != nil {
		app.internalServerError(w, r, err)
	}
}

type slotCheckResponse struct {
	Date      calendar.Day `json:"date"`
	StartTime string       `json:"start_time"`
	EndTime   string       `json:"end_time"`
	Available bool         `json:"available"`
}

// checkSlotHandler godoc
//
//	@Summary		Check a time range
//	@Description	Reports whether the range could be booked right now. Advisory only.
//	@Tags			Availability
//	@Produce		json
//	@Param			venueID	path		int		true	"Venue ID"
//	@Param			date	query		string	true	"Date (YYYY-MM-DD)"
//	@Param			start	query		string	true	"Start (HH:MM)"
//	@Param			end		query		string	true	"End (HH:MM)"
//	@Success		200		{object}	slotCheckResponse
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		404		{object}	error	"Venue not found"
//	@Router			/venues/{venueID}/availability/check [get]
func (app *application) checkSlotHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	day, err := dayQuery(r, "date")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	start, err := calendar.ParseClock(r.URL.Query().Get("start"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	end, err := calendar.ParseClock(r.URL.Query().Get("end"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ok, err := app.engine.CheckSlotAvailable(r.Context(), venueID, day, start, end)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	resp := slotCheckResponse{
		Date:      day,
		StartTime: calendar.FormatClock(start),
		EndTime:   calendar.FormatClock(end),
		Available: ok,
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
