// Package jalali converts between the Gregorian and Solar Hijri (Jalali)
// calendars and does the date-string arithmetic the installment scheduler
// needs. All functions are pure; malformed input degrades to a sentinel or
// to the original string, never to an error.
package jalali

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date is a Jalali calendar date.
type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

// String renders the date as zero-padded "YYYY/MM/DD" with ASCII digits.
func (d Date) String() string {
	return formatASCII(d)
}

// Month lengths for a non-leap Jalali year. Esfand (month 12) gains a 30th
// day in leap years.
var monthDays = [12]int{31, 31, 31, 31, 31, 31, 30, 30, 30, 30, 30, 29}

var persianDigits = [10]rune{'۰', '۱', '۲', '۳', '۴', '۵', '۶', '۷', '۸', '۹'}

// Day counts preceding each Gregorian month in a non-leap year.
var gregorianDaysBefore = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// IsLeapYear reports whether a Jalali year is a leap year, using the 33-year
// approximation cycle. This deliberately matches the cycle used everywhere
// else in the system rather than the astronomical rule.
func IsLeapYear(year int) bool {
	switch year % 33 {
	case 1, 5, 9, 13, 17, 22, 26, 30:
		return true
	}
	return false
}

// MonthLength returns the number of days in the given Jalali month.
func MonthLength(year, month int) int {
	if month == 12 && IsLeapYear(year) {
		return 30
	}
	return monthDays[month-1]
}

// ToJalali converts a Gregorian time to its Jalali date components.
func ToJalali(t time.Time) (year, month, day int) {
	gy, gm, gd := t.Year(), int(t.Month()), t.Day()

	// Days elapsed since the start of Gregorian year 1600.
	gy2 := gy - 1600
	days := 365*gy2 + (gy2+3)/4 - (gy2+99)/100 + (gy2+399)/400
	days += gregorianDaysBefore[gm-1]
	if gm > 2 && isGregorianLeap(gy) {
		days++
	}
	days += gd - 1

	// Shift onto the Jalali epoch and decompose into 33-year grand cycles
	// (12053 days) and 4-year cycles (1461 days).
	jDays := days - 79
	jy := 979 + 33*(jDays/12053)
	jDays %= 12053
	jy += 4 * (jDays / 1461)
	jDays %= 1461
	if jDays >= 366 {
		jy += (jDays - 1) / 365
		jDays = (jDays - 1) % 365
	}

	// First 6 months have 31 days (186 total), the rest 30 (Esfand 29/30).
	if jDays < 186 {
		return jy, 1 + jDays/31, 1 + jDays%31
	}
	jDays -= 186
	return jy, 7 + jDays/30, 1 + jDays%30
}

func isGregorianLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// Format renders a Gregorian time as a Jalali date string with Persian
// digits, e.g. "۱۴۰۳/۰۱/۱۵".
func Format(t time.Time) string {
	y, m, d := ToJalali(t)
	return ToPersianDigits(formatASCII(Date{y, m, d}))
}

// FormatASCII renders a Gregorian time as a Jalali date string with ASCII
// digits, the form used for persistence.
func FormatASCII(t time.Time) string {
	y, m, d := ToJalali(t)
	return formatASCII(Date{y, m, d})
}

func formatASCII(d Date) string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// Today returns the current Jalali date with ASCII digits. Because the
// format is zero-padded YYYY/MM/DD, these strings order lexicographically,
// which is what due-date comparisons rely on.
func Today() string {
	return FormatASCII(time.Now())
}

// Parse splits a Jalali date string into components. It accepts "/" or "-"
// separators and ASCII or Persian digits. Month must be 1-12 and day 1-31;
// the day is NOT checked against the month's actual length here, callers
// doing arithmetic clamp it later. Returns ok=false for anything malformed.
func Parse(s string) (Date, bool) {
	normalized := strings.ReplaceAll(ToASCIIDigits(strings.TrimSpace(s)), "-", "/")
	parts := strings.Split(normalized, "/")
	if len(parts) != 3 {
		return Date{}, false
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, false
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return Date{}, false
	}
	return d, true
}

// AddMonths adds a whole number of months to a Jalali date string and
// returns the result with Persian digits. Month overflow carries into the
// year and the day is clamped to the target month's length. If the input
// does not parse, it is returned unchanged.
func AddMonths(s string, months int) string {
	d, ok := Parse(s)
	if !ok {
		return s
	}
	return ToPersianDigits(formatASCII(addMonths(d, months)))
}

// AddMonthsASCII is AddMonths with ASCII-digit output, used when the result
// is persisted rather than displayed.
func AddMonthsASCII(s string, months int) string {
	d, ok := Parse(s)
	if !ok {
		return s
	}
	return formatASCII(addMonths(d, months))
}

func addMonths(d Date, months int) Date {
	total := d.Year*12 + (d.Month - 1) + months
	year := total / 12
	month := total%12 + 1
	if total < 0 && total%12 != 0 {
		year--
		month += 12
	}

	day := d.Day
	if max := MonthLength(year, month); day > max {
		day = max
	}
	return Date{Year: year, Month: month, Day: day}
}

// InstallmentDueDate projects the due date of the n-th installment of an
// agreement: the agreement date advanced by n months, ASCII digits. This is
// the only calendar entry point the amortization engine uses.
func InstallmentDueDate(agreementDate string, installmentNumber int) string {
	return AddMonthsASCII(agreementDate, installmentNumber)
}

// ToPersianDigits replaces ASCII digits with their Persian equivalents.
func ToPersianDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return persianDigits[r-'0']
		}
		return r
	}, s)
}

// ToASCIIDigits replaces Persian (and Arabic-Indic) digits with ASCII ones.
func ToASCIIDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return r
	}, s)
}
