package post

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthSlugs = [...]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// Date is a calendar day. The zero value sorts before every valid date and
// is used as the "no posts" sentinel.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// ParseDate parses a DD-MM-YYYY date. Years outside 1970..9999 and days that
// do not exist in the given month are rejected.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date %q: expected DD-MM-YYYY", s)
	}
	var nums [3]int
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return Date{}, fmt.Errorf("invalid date %q: expected DD-MM-YYYY", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		nums[i] = n
	}
	d := Date{Day: nums[0], Month: nums[1], Year: nums[2]}
	if d.Year < 1970 || d.Year > 9999 {
		return Date{}, fmt.Errorf("invalid date %q: year out of range", s)
	}
	if d.Month < 1 || d.Month > 12 {
		return Date{}, fmt.Errorf("invalid date %q: month out of range", s)
	}
	if d.Day < 1 || d.Day > 31 || d.Time().Day() != d.Day {
		return Date{}, fmt.Errorf("invalid date %q: day out of range", s)
	}
	return d, nil
}

// IsZero reports whether d is the zero sentinel.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(d.Month, o.Month)
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return d.Compare(o) > 0
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Timestamp formats d as an Atom/RFC 3339 timestamp at UTC midnight.
func (d Date) Timestamp() string {
	return fmt.Sprintf("%04d-%02d-%02dT00:00:00Z", d.Year, d.Month, d.Day)
}

// ISO formats d as YYYY-MM-DD.
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MonthSlug is the lowercase three-letter month used in output paths.
func (d Date) MonthSlug() string {
	if d.Month < 1 || d.Month > 12 {
		return ""
	}
	return monthSlugs[d.Month-1]
}

// MonthName is the abbreviated month shown on pages ("jan.", "may").
func (d Date) MonthName() string {
	s := d.MonthSlug()
	if s == "may" || s == "" {
		return s
	}
	return s + "."
}

// String implements fmt.Stringer using the input format.
func (d Date) String() string {
	return fmt.Sprintf("%02d-%02d-%04d", d.Day, d.Month, d.Year)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
