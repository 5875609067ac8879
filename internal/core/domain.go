package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const MaxDescriptionLength = 200

// MaxRangeDays bounds any requested day range to about ten years.
const MaxRangeDays = 3653

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one recorded movement of money. Ref is a producer
	// supplied identifier used to drop duplicate deliveries.
	Transaction struct {
		ID          int64
		Ref         string
		Date        Date
		Description string
		Amount      Money
		Category    string
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrZeroAmount       = errors.New("amount cannot be zero")
	ErrEmptyDescription = errors.New("empty description")
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrInvertedRange    = errors.New("range ends before it starts")
	ErrRangeTooLong     = fmt.Errorf("range longer than %d days", MaxRangeDays)

	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// CheckRange validates the inclusive day range [from, to].
func CheckRange(from, to Date) error {
	if to.Before(from.Time) {
		return fmt.Errorf("%w: %s to %s", ErrInvertedRange, from, to)
	}
	if to.After(from.AddDate(0, 0, MaxRangeDays-1)) {
		return fmt.Errorf("%w: %s to %s", ErrRangeTooLong, from, to)
	}
	return nil
}

// NewDate creates a Date at midnight UTC. Month is one-based.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateFromClick builds a Date from a heat-map click, whose month is zero-based.
// Out of range parts are rejected rather than normalised.
func DateFromClick(year, month, day int) (Date, error) {
	if month < 0 || month > 11 {
		return Date{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	d := NewDate(year, month+1, day)
	if d.Day() != day || int(d.Month()) != month+1 {
		return Date{}, fmt.Errorf("%w: %d", ErrInvalidDay, day)
	}
	return d, nil
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrZeroAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return t.Amount.Validate()
}
