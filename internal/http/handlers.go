package http

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"seven23/internal/core"
	"seven23/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": s.opts.Now().UTC().Format(time.RFC3339),
		"uptime":    s.opts.Now().Sub(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the templates and the database.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.pinger == nil:
		checks["database"] = "not_configured"
	case s.pinger.Ping(ctx) != nil:
		checks["database"] = "failed"
		status, code = "not_ready", http.StatusServiceUnavailable
	default:
		checks["database"] = "ok"
	}

	stats := s.renders.Stats()
	NewHTMXResponse().Status(code).JSON(map[string]any{
		"status": status,
		"checks": checks,
		"render_cache": map[string]any{
			"size":      stats.Size,
			"hits":      stats.Hits,
			"misses":    stats.Misses,
			"evictions": stats.Evictions,
		},
		"security": s.metrics.snapshot(),
	}).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		log.LogError(r.Context(), "Templates not loaded", errors.New("nil templates"), log.ComponentHTTP, log.OpRender, nil)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	params := s.opts.Calendar
	params.Loading = true
	skeleton, err := s.calendarSVG(r.Context(), params)
	if err != nil {
		log.LogError(r.Context(), "Skeleton render failed", err, log.ComponentHTTP, log.OpRender, nil)
	}

	data := struct {
		Today    string
		Currency string
		Calendar template.HTML
	}{
		Today:    today(s.opts.Now).String(),
		Currency: s.opts.Currency.Code,
		Calendar: template.HTML(skeleton),
	}
	s.executeTemplate(w, r, "index.html", data)
}

func (s *Server) calendarParams(w http.ResponseWriter, r *http.Request) (CalendarParams, bool) {
	params, err := ParseCalendarParams(r.URL.Query(), s.opts.Calendar)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return params, false
	}
	return params, true
}

// handleCalendarSVG serves the heat-map as a standalone SVG document.
func (s *Server) handleCalendarSVG(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}
	params, ok := s.calendarParams(w, r)
	if !ok {
		return
	}
	data, err := s.calendarSVG(r.Context(), params)
	if err != nil {
		log.LogError(r.Context(), "Calendar render failed", err, log.ComponentHTTP, log.OpRender, nil)
		http.Error(w, "calendar unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

// handleCalendarPartial serves the heat-map wrapped for the page. A loading
// partial asks for the real one as soon as it is swapped in.
func (s *Server) handleCalendarPartial(w http.ResponseWriter, r *http.Request) {
	params, ok := s.calendarParams(w, r)
	if !ok {
		return
	}
	data, err := s.calendarSVG(r.Context(), params)
	if err != nil {
		log.LogError(r.Context(), "Calendar render failed", err, log.ComponentHTTP, log.OpRender, nil)
		ErrorResponse(http.StatusInternalServerError, "Calendar unavailable").Write(w)
		return
	}

	reload := url.Values{}
	for k, v := range r.URL.Query() {
		if k != "loading" {
			reload[k] = v
		}
	}
	s.executeTemplate(w, r, "calendar.html", struct {
		Loading bool
		Reload  string
		SVG     template.HTML
	}{
		Loading: params.Loading,
		Reload:  "/ui/calendar?" + reload.Encode(),
		SVG:     template.HTML(data),
	})
}

// handleDayReport renders the transactions of a clicked day. The month is
// zero-based, as the click delivers it.
func (s *Server) handleDayReport(w http.ResponseWriter, r *http.Request) {
	d, err := ParseClickDate(r.URL.Query())
	if err != nil {
		BadRequestError("Invalid day").Write(w)
		return
	}
	report, err := s.transactions.DayReport(r.Context(), d)
	if err != nil {
		log.LogError(r.Context(), "Day report failed", err, log.ComponentHTTP, log.OpList,
			log.NewFields().WithTransaction("", d.String(), 0, ""))
		ErrorResponse(http.StatusInternalServerError, "Day report unavailable").Write(w)
		return
	}
	s.executeTemplate(w, r, "day.html", report)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Malformed request body").Write(w)
		return
	}
	t, err := ParseTransaction(parser, today(s.opts.Now))
	if err != nil {
		UnprocessableEntityError("Invalid amount or date").Write(w)
		return
	}

	stored, err := s.transactions.Record(r.Context(), t)
	if err != nil {
		if isValidationError(err) {
			UnprocessableEntityError("Invalid transaction: " + err.Error()).Write(w)
			return
		}
		log.LogError(r.Context(), "Transaction save failed", err, log.ComponentHTTP, log.OpCreate,
			log.NewFields().WithTransaction(t.Ref, t.Date.String(), t.Amount.Cents, t.Category))
		InternalServerError("Transaction could not be saved").Write(w)
		return
	}
	s.InvalidateRenders()

	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction recorded",
		log.NewFields().WithTransaction(stored.Ref, stored.Date.String(), stored.Amount.Cents, stored.Category).ToSlice()...)

	resp := NewHTMXResponse().TriggerTransactionCreated(clickRef(stored.Date))
	if parser.IsJSON() {
		resp.Status(http.StatusCreated).JSON(map[string]any{
			"id":           stored.ID,
			"ref":          stored.Ref,
			"date":         stored.Date.String(),
			"description":  stored.Description,
			"amount_cents": stored.Amount.Cents,
			"category":     stored.Category,
		}).Write(w)
		return
	}
	resp.TriggerFormReset().
		TriggerSuccessNotification("Transaction recorded").
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(stored.Description) + ` ` +
			template.HTMLEscapeString(s.opts.Currency.Format(stored.Amount.Cents)) + `</div>`).
		Write(w)
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDay, core.ErrInvalidMonth, core.ErrZeroDate,
		core.ErrZeroAmount, core.ErrEmptyDescription, core.ErrDescriptionTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// executeTemplate renders into a buffer first so a failing template never
// sends a partial page.
func (s *Server) executeTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.LogError(r.Context(), "Template execution failed", err, log.ComponentHTTP, log.OpRender,
			log.LogFields{"template": name})
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
