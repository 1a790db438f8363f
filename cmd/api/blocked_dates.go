package main

import (
	"errors"
	"io"
	"net/http"

	"venueslots/internal/calendar"

	"github.com/go-chi/chi/v5"
)

type BlockDatePayload struct {
	Reason string `json:"reason" validate:"max=255"`
}

// readBlockPayload accepts an empty body.
func readBlockPayload(w http.ResponseWriter, r *http.Request) (BlockDatePayload, error) {
	var payload BlockDatePayload
	if err := readJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		return payload, err
	}
	return payload, Validate.Struct(payload)
}

func dateParam(r *http.Request) (calendar.Day, error) {
	return calendar.Parse(chi.URLParam(r, "date"))
}

// blockDateHandler godoc
//
//	@Summary		Block a date
//	@Description	Withdraws the day from booking. Existing bookings are kept.
//	@Tags			BlockedDates
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		int					true	"Venue ID"
//	@Param			date	path		string				true	"Date (YYYY-MM-DD)"
//	@Param			payload	body		BlockDatePayload	false	"Reason"
//	@Success		200		{object}	blockeddates.BlockedDate
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		403		{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/blocked-dates/{date} [put]
func (app *application) blockDateHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	day, err := dateParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload, err := readBlockPayload(w, r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	bd, err := app.engine.BlockDate(r.Context(), venueID, day, payload.Reason)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, bd); err != nil {
		app.internalServerError(w, r, err)
	}
}

// unblockDateHandler godoc
//
//	@Summary		Unblock a date
//	@Description	Idempotent: unblocking a day that is not blocked succeeds.
//	@Tags			BlockedDates
//	@Param			venueID	path	int		true	"Venue ID"
//	@Param			date	path	string	true	"Date (YYYY-MM-DD)"
//	@Success		204
//	@Failure		400	{object}	error	"Bad Request"
//	@Failure		403	{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/blocked-dates/{date} [delete]
func (app *application) unblockDateHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	day, err := dateParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.engine.UnblockDate(r.Context(), venueID, day); err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toggleBlockHandler godoc
//
//	@Summary		Toggle a blocked date
//	@Tags			BlockedDates
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		int					true	"Venue ID"
//	@Param			date	path		string				true	"Date (YYYY-MM-DD)"
//	@Param			payload	body		BlockDatePayload	false	"Reason used when blocking"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		403		{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/blocked-dates/{date}/toggle [post]
func (app *application) toggleBlockHandler(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	day, err := dateParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload, err := readBlockPayload(w, r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	blocked, err := app.engine.ToggleBlock(r.Context(), venueID, day, payload.Reason)
	if err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	resp := map[string]any{
		"date":    day,
		"blocked": blocked,
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
