// Package http provides the HTTP server of the heat-map and its handlers.
//
// This file holds the parsing of query strings and request bodies into
// calendar and transaction parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"seven23/internal/calendar"
	"seven23/internal/core"
)

const maxBodyBytes = 64 << 10

var errBadParam = errors.New("invalid parameter")

// CalendarParams are the per-request overrides of the configured graph.
type CalendarParams struct {
	Width         float64
	MonthsPerLine int
	Weekday       calendar.WeekConvention
	Loading       bool
	From, To      core.Date
}

// HasRange reports whether both ends of an explicit date range were given.
func (p CalendarParams) HasRange() bool {
	return !p.From.IsZero() && !p.To.IsZero()
}

// ParseCalendarParams reads width, months, weekday, loading, from and to,
// starting from defaults. Unknown or malformed values are errors, not
// silently replaced.
func ParseCalendarParams(query url.Values, defaults CalendarParams) (CalendarParams, error) {
	p := defaults

	if v := strings.TrimSpace(query.Get("width")); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) || w < 100 || w > 4000 {
			return p, fmt.Errorf("%w: width %q", errBadParam, v)
		}
		p.Width = w
	}
	if v := strings.TrimSpace(query.Get("months")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 0 || m > calendar.MaxMonthsPerLine {
			return p, fmt.Errorf("%w: months %q", errBadParam, v)
		}
		p.MonthsPerLine = m
	}
	if v := strings.TrimSpace(query.Get("weekday")); v != "" {
		conv, err := calendar.ParseWeekConvention(v)
		if err != nil {
			return p, fmt.Errorf("%w: %v", errBadParam, err)
		}
		p.Weekday = conv
	}
	if v := strings.TrimSpace(query.Get("loading")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("%w: loading %q", errBadParam, v)
		}
		p.Loading = b
	}

	from, to := strings.TrimSpace(query.Get("from")), strings.TrimSpace(query.Get("to"))
	if (from == "") != (to == "") {
		return p, fmt.Errorf("%w: from and to must be given together", errBadParam)
	}
	if from != "" {
		var err error
		if p.From, err = core.ParseDate(from); err != nil {
			return p, fmt.Errorf("%w: from %q", errBadParam, from)
		}
		if p.To, err = core.ParseDate(to); err != nil {
			return p, fmt.Errorf("%w: to %q", errBadParam, to)
		}
		if err := core.CheckRange(p.From, p.To); err != nil {
			return p, fmt.Errorf("%w: %v", errBadParam, err)
		}
	}
	return p, nil
}

// ParseClickDate reads the year, zero-based month and day a heat-map click
// delivers.
func ParseClickDate(query url.Values) (core.Date, error) {
	parts := make([]int, 3)
	for i, key := range []string{"year", "month", "day"} {
		v := strings.TrimSpace(query.Get(key))
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.Date{}, fmt.Errorf("%w: %s %q", errBadParam, key, v)
		}
		parts[i] = n
	}
	return core.DateFromClick(parts[0], parts[1], parts[2])
}

// RequestBodyParser reads a form or JSON body once.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like JSON, as a form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal([]byte(body), &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns the sanitized value of key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseTransaction builds a transaction from a parsed body. The date
// defaults to today; the amount is signed, negative for expenses.
func ParseTransaction(p *RequestBodyParser, today core.Date) (core.Transaction, error) {
	t := core.Transaction{
		Ref:         p.Get("ref"),
		Date:        today,
		Description: p.Get("description"),
		Category:    p.Get("category"),
	}
	if v := p.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return t, fmt.Errorf("%w: date %q", errBadParam, v)
		}
		t.Date = d
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return t, err
	}
	t.Amount = amount
	return t, nil
}

// RequireMethod returns a 405 response when r.Method is not one of methods.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
