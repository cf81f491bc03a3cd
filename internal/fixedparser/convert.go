package fixedparser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mlindgren/bankfiles/internal/parsererror"
)

var timeField = regexp.MustCompile(`^\d{4}$`)

// noDate is the conventional "not present" value of a YYMMDD field.
const noDate = "000000"

// Date converts a mandatory YYMMDD field (years are 2000-based) into a date
// in the given location. A blank or all-zero value is an error: the caller
// declared the field mandatory.
func (r *Record) Date(name string, loc *time.Location) (time.Time, error) {
	v := r.Str(name)
	if len(v) != 6 || v == noDate {
		return time.Time{}, &parsererror.FieldValidationError{
			LineNumber: r.LineNumber, Field: name, Value: v, Msg: "date format error",
		}
	}
	year, err1 := strconv.Atoi(v[0:2])
	month, err2 := strconv.Atoi(v[2:4])
	day, err3 := strconv.Atoi(v[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, &parsererror.FieldValidationError{
			LineNumber: r.LineNumber, Field: name, Value: v, Msg: "date format error",
		}
	}
	return time.Date(year+2000, time.Month(month), day, 0, 0, 0, 0, loc), nil
}

// OptDate converts an optional YYMMDD field. "000000" and blank yield a zero
// time without error.
func (r *Record) OptDate(name string, loc *time.Location) (time.Time, error) {
	v := r.Str(name)
	if v == "" || v == noDate {
		return time.Time{}, nil
	}
	return r.Date(name, loc)
}

// DateTime combines a YYMMDD date field with a HHMM time field into a single
// timestamp. When both fields are absent a zero time is returned; when either
// is present, both must be valid.
func (r *Record) DateTime(dateName, timeName string, loc *time.Location) (time.Time, error) {
	dv, tv := r.Str(dateName), r.Str(timeName)
	if dv == "" && tv == "" {
		return time.Time{}, nil
	}
	d, err := r.Date(dateName, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !timeField.MatchString(tv) {
		return time.Time{}, &parsererror.FieldValidationError{
			LineNumber: r.LineNumber, Field: timeName, Value: tv, Msg: "time format error",
		}
	}
	hour, _ := strconv.Atoi(tv[0:2])
	minute, _ := strconv.Atoi(tv[2:4])
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), nil
}

// Decimal converts an unsigned digit-string field holding minor currency
// units into a decimal value (digits x 0.01). Embedded commas are dropped.
func (r *Record) Decimal(name string) (decimal.Decimal, error) {
	v := strings.ReplaceAll(r.Str(name), ",", "")
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, &parsererror.FieldValidationError{
			LineNumber: r.LineNumber, Field: name, Value: r.Str(name), Msg: "decimal format error",
		}
	}
	return d.Shift(-2), nil
}

// SignedDecimal converts a minor-unit digit field paired with a separate
// one-character sign field. The value is negated when the sign field equals
// negSign; any other sign value leaves it positive.
func (r *Record) SignedDecimal(name, signName, negSign string) (decimal.Decimal, error) {
	d, err := r.Decimal(name)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if r.Str(signName) == negSign {
		d = d.Neg()
	}
	return d, nil
}

// Int converts a numeric field into an int.
func (r *Record) Int(name string) (int, error) {
	n, err := strconv.Atoi(r.Str(name))
	if err != nil {
		return 0, &parsererror.FieldValidationError{
			LineNumber: r.LineNumber, Field: name, Value: r.Str(name), Msg: "integer format error",
		}
	}
	return n, nil
}
