package duration

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"jilai-deployer/internal/models"
)

// Unit 时间单位
type Unit = models.DurationUnit

// Spec is a (unit, magnitude) pair such as {minutes, 4}.
type Spec = models.DurationSpec

const (
	Seconds Unit = "seconds"
	Minutes Unit = "minutes"
	Hours   Unit = "hours"
	Days    Unit = "days"
	Weeks   Unit = "weeks"
	Years   Unit = "years"
)

// Each unit is defined in terms of the previous one.
func seconds(v int64) int64 { return v }
func minutes(v int64) int64 { return v * seconds(60) }
func hours(v int64) int64   { return v * minutes(60) }
func days(v int64) int64    { return v * hours(24) }
func weeks(v int64) int64   { return v * days(7) }
func years(v int64) int64   { return v * days(365) }

var table = map[Unit]func(int64) int64{
	Seconds: seconds,
	Minutes: minutes,
	Hours:   hours,
	Days:    days,
	Weeks:   weeks,
	Years:   years,
}

/**
 * Parse unit name
 * @param {string} name - Unit name, singular or plural, case insensitive
 * @returns {Unit} Canonical unit
 * @returns {error} ConfigurationError for unknown names
 */
func ParseUnit(name string) (Unit, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n != "" && !strings.HasSuffix(n, "s") {
		n += "s"
	}
	u := Unit(n)
	if _, ok := table[u]; !ok {
		return "", &models.ConfigurationError{Reason: fmt.Sprintf("unknown duration unit %q", name)}
	}
	return u, nil
}

/**
 * Convert a duration to seconds
 * @param {Spec} spec - Duration to convert
 * @returns {int64} Number of seconds
 * @returns {error} ConfigurationError when the unit is unknown, the value is negative or the result overflows int64
 * @example
 * secs, _ := duration.ToBaseUnits(duration.Spec{Unit: duration.Days, Value: 90}) // 7776000
 */
func ToBaseUnits(spec Spec) (int64, error) {
	unit, err := ParseUnit(string(spec.Unit))
	if err != nil {
		return 0, err
	}
	if spec.Value < 0 {
		return 0, &models.ConfigurationError{Reason: fmt.Sprintf("negative duration %s", spec)}
	}
	conv := table[unit]
	if spec.Value > math.MaxInt64/conv(1) {
		return 0, &models.ConfigurationError{Reason: fmt.Sprintf("duration %s overflows int64 seconds", spec)}
	}
	return conv(spec.Value), nil
}

/**
 * Parse "<value> <unit>" such as "90 days" or "4 minutes"
 * @param {string} s - Duration text
 * @returns {Spec} Parsed duration with canonical unit
 */
func ParseSpec(s string) (Spec, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Spec{}, &models.ConfigurationError{Reason: fmt.Sprintf("invalid duration %q, expected \"<value> <unit>\"", s)}
	}
	v, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Spec{}, &models.ConfigurationError{Reason: fmt.Sprintf("invalid duration value %q", fields[0])}
	}
	unit, err := ParseUnit(fields[1])
	if err != nil {
		return Spec{}, err
	}
	spec := Spec{Unit: unit, Value: v}
	if _, err := ToBaseUnits(spec); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Offset returns now shifted by the sum of all offsets.
func Offset(now int64, offsets ...Spec) (int64, error) {
	t := now
	for _, o := range offsets {
		secs, err := ToBaseUnits(o)
		if err != nil {
			return 0, err
		}
		if t > math.MaxInt64-secs {
			return 0, &models.ConfigurationError{Reason: fmt.Sprintf("%d + %s overflows int64 seconds", t, o)}
		}
		t += secs
	}
	return t, nil
}

var (
	DefaultOpening = Spec{Unit: Minutes, Value: 4}
	DefaultClosing = Spec{Unit: Days, Value: 90}
)

// Window 销售窗口(开始/结束时间戳)
type Window struct {
	Now         int64 `json:"now"`
	OpeningTime int64 `json:"openingTime"`
	ClosingTime int64 `json:"closingTime"`
}

/**
 * Compute sale opening and closing times
 * @param {int64} now - Reference time, unix seconds
 * @param {Spec} opening - Delay from now until the sale opens
 * @param {Spec} closing - Sale length, counted from the opening time
 * @returns {Window} openingTime = now + opening, closingTime = openingTime + closing
 */
func SaleWindow(now int64, opening, closing Spec) (Window, error) {
	open, err := Offset(now, opening)
	if err != nil {
		return Window{}, err
	}
	cls, err := Offset(open, closing)
	if err != nil {
		return Window{}, err
	}
	return Window{Now: now, OpeningTime: open, ClosingTime: cls}, nil
}
