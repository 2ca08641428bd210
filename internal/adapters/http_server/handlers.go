package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_search/internal/app"
	"hotel_search/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	hotels   *app.HotelService
	validate *validator.Validate
}

func NewHandlers(s *app.HotelService) *Handlers {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json/query names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Handlers{hotels: s, validate: v}
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// searchParams mirrors the search query string. Pointers tell "absent" from 0.
type searchParams struct {
	Latitude   *float64 `json:"latitude" validate:"required,latitude"`
	Longitude  *float64 `json:"longitude" validate:"required,longitude"`
	PageNumber *int     `json:"pageNumber" validate:"omitempty,gte=1"`
	PageSize   *int     `json:"pageSize" validate:"omitempty,gte=1,lte=100"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1/hotels", func(r chi.Router) {
		r.Post("/", h.createHotel)
		r.Get("/search", h.searchHotels)
		r.Get("/{id}", h.getHotel)
		r.Put("/{id}", h.updateHotel)
		r.Delete("/{id}", h.deleteHotel)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNullArgument):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrDuplicate):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusServiceUnavailable, "Unavailable", "request canceled")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// writeJSON marshals before writing the header so an unencodable value
// still yields a 500 instead of an empty 2xx.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("marshal JSON response failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// validationErr turns validator output into domain errors: a missing
// pointer field is a null argument, anything else a validation error.
func validationErr(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return &domain.ValidationError{Field: "request", Reason: err.Error()}
	}
	fe := ves[0]
	field := fe.Field()
	if fe.Tag() == "required" && fe.Kind() != reflect.String {
		if field == "latitude" || field == "longitude" {
			field = "location"
		}
		return &domain.NullArgumentError{Arg: field}
	}
	reason := fmt.Sprintf("failed %q", fe.Tag())
	if fe.Param() != "" {
		reason = fmt.Sprintf("failed %q (%s)", fe.Tag(), fe.Param())
	}
	return &domain.ValidationError{Field: field, Reason: reason}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) decodeHotel(w http.ResponseWriter, r *http.Request) (app.HotelRequest, bool) {
	var req app.HotelRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		detail := "body must be a JSON hotel object"
		if errors.Is(err, io.EOF) {
			detail = "body is empty"
		}
		writeProblem(w, http.StatusBadRequest, "Invalid Body", detail)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, validationErr(err))
		return req, false
	}
	return req, true
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeHotel(w, r)
	if !ok {
		return
	}
	hotel, err := h.hotels.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/hotels/"+hotel.ID().String())
	writeJSON(w, http.StatusCreated, app.ToHotelResponse(hotel))
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	hotel, found, err := h.hotels.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
		return
	}

	etag, body := calcETagAndBody(app.ToHotelResponse(hotel))
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write getHotel body")
	}
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeHotel(w, r)
	if !ok {
		return
	}
	hotel, err := h.hotels.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app.ToHotelResponse(hotel))
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.hotels.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var p searchParams
	for _, f := range []struct {
		key string
		dst **float64
	}{{"latitude", &p.Latitude}, {"longitude", &p.Longitude}} {
		if s := q.Get(f.key); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid Request", f.key+" must be a number")
				return
			}
			*f.dst = &v
		}
	}
	for _, f := range []struct {
		key string
		dst **int
	}{{"pageNumber", &p.PageNumber}, {"pageSize", &p.PageSize}} {
		if s := q.Get(f.key); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				writeProblem(w, http.StatusBadRequest, "Invalid Request", f.key+" must be an integer")
				return
			}
			*f.dst = &v
		}
	}
	if err := h.validate.Struct(p); err != nil {
		writeError(w, r, validationErr(err))
		return
	}

	sq := domain.SearchQuery{Latitude: *p.Latitude, Longitude: *p.Longitude}
	if p.PageNumber != nil {
		sq.PageNumber = *p.PageNumber
	}
	if p.PageSize != nil {
		sq.PageSize = *p.PageSize
	}
	res, err := h.hotels.Search(r.Context(), sq)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
