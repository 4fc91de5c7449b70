package presenter

import (
	"math"
	"strconv"
	"strings"
	"time"

	"basicswap-orderbook-go/internal/models"
	"github.com/shopspring/decimal"
)

// FormatAge renders a sync age: seconds below a minute, then whole minutes,
// then whole hours.
func FormatAge(seconds int64) string {
	switch {
	case seconds < 60:
		return strconv.FormatInt(seconds, 10) + "s"
	case seconds < 3600:
		return strconv.FormatInt(seconds/60, 10) + "m"
	default:
		return strconv.FormatInt(seconds/3600, 10) + "h"
	}
}

// FormatExpiry renders the time left until expiresAt (epoch ms) as of now.
func FormatExpiry(expiresAt int64, now time.Time) string {
	diff := expiresAt - now.UnixMilli()
	switch {
	case diff < 0:
		return "Expired"
	case diff < time.Hour.Milliseconds():
		return strconv.FormatInt(diff/time.Minute.Milliseconds(), 10) + "m"
	case diff < 24*time.Hour.Milliseconds():
		return strconv.FormatInt(diff/time.Hour.Milliseconds(), 10) + "h"
	default:
		return strconv.FormatInt(diff/(24*time.Hour.Milliseconds()), 10) + "d"
	}
}

// FormatClock renders an RFC 3339 instant as local HH:MM, or "--".
func FormatClock(instant string, loc *time.Location) string {
	if instant == "" {
		return "--"
	}
	t, err := time.Parse(time.RFC3339Nano, instant)
	if err != nil {
		return "--"
	}
	return t.In(loc).Format("15:04")
}

// FormatFixed renders an amount with exactly places decimals. The amount is
// read as a float64 and its exact binary value is rounded half away from zero.
// Magnitudes of 1e21 and above use exponent notation.
func FormatFixed(a models.Amount, places int32) string {
	f, ok := a.Float64()
	switch {
	case !ok:
		return "NaN"
	case math.IsInf(f, 0):
		return infinity(f)
	case math.Abs(f) >= 1e21:
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := decimal.NewFromFloatWithExponent(f, -places).StringFixed(places)
	if f < 0 && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}

// FormatAmountPrecision renders an amount with digits significant digits.
func FormatAmountPrecision(a models.Amount, digits int) string {
	f, ok := a.Float64()
	if !ok {
		return "NaN"
	}
	return FormatPrecision(f, digits)
}

func infinity(f float64) string {
	if f < 0 {
		return "-Infinity"
	}
	return "Infinity"
}

// FormatPrecision renders v with digits significant digits. Exponent notation
// is used when the exponent is below -6 or not smaller than digits.
func FormatPrecision(v float64, digits int) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		return infinity(v)
	}
	if digits < 1 {
		digits = 1
	}

	// The 'e' format rounds to the requested digits and tells us the exponent.
	sci := strconv.FormatFloat(v, 'e', digits-1, 64)
	mantissa, expPart, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(expPart)

	if v == 0 {
		exp = 0
	}
	if exp < -6 || exp >= digits {
		sign := "+"
		if exp < 0 {
			sign = "-"
			exp = -exp
		}
		return mantissa + "e" + sign + strconv.Itoa(exp)
	}
	return strconv.FormatFloat(v, 'f', digits-1-exp, 64)
}
