package db

import (
	"strconv"
	"strings"
	"time"
)

const (
	mysqlDateLayout     = "2006-01-02"
	mysqlTimeLayout     = "15:04:05"
	mysqlDateTimeLayout = "2006-01-02 15:04:05"
)

// now is the clock of the current-time functions. All of them report UTC.
var now = func() time.Time { return time.Now().UTC() }

var dateTimeFunctions = []udf{
	{"year", dateYear, true},
	{"month", dateMonth, true},
	{"day", dateDay, true},
	{"hour", timeHour, true},
	{"minute", timeMinute, true},
	{"second", timeSecond, true},
	{"dayofweek", dateDayOfWeek, true},
	{"dayofyear", dateDayOfYear, true},
	{"weekday", dateWeekday, true},
	{"week", dateWeek, true},
	{"quarter", dateQuarter, true},
	{"dayname", dateDayName, true},
	{"monthname", dateMonthName, true},
	{"to_days", dateToDays, true},
	{"now", func() string { return now().Format(mysqlDateTimeLayout) }, false},
	{"curdate", func() string { return now().Format(mysqlDateLayout) }, false},
	{"curtime", func() string { return now().Format(mysqlTimeLayout) }, false},
	{"utc_timestamp", func() string { return now().Format(mysqlDateTimeLayout) }, false},
	{"utc_date", func() string { return now().Format(mysqlDateLayout) }, false},
	{"utc_time", func() string { return now().Format(mysqlTimeLayout) }, false},
	{"date_format", dateFormat, true},
	{"from_unixtime", fromUnixtime, true},
	{"unix_timestamp", unixTimestamp, false},
	{"datediff", dateDiff, true},
	{"timestampdiff", timestampDiff, true},
	{"last_day", lastDay, true},
}

var dateTimeLayouts = []string{
	mysqlDateTimeLayout,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	mysqlDateLayout,
	"20060102150405",
	"20060102",
	mysqlTimeLayout,
}

// parseDateTime reads a MySQL date, datetime or time value. Fractional
// seconds are accepted after any layout with seconds.
func parseDateTime(v any) (time.Time, bool) {
	s, ok := toText(v)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// zeroDate reports MySQL's zero date, 0000-00-00 with an optional time.
func zeroDate(v any) bool {
	s, ok := toText(v)
	return ok && strings.HasPrefix(strings.TrimSpace(s), "0000-00-00")
}

// datePart extracts a field of a date. The zero date has zero fields.
func datePart(v any, part func(time.Time) int) any {
	if zeroDate(v) {
		return int64(0)
	}
	t, ok := parseDateTime(v)
	if !ok {
		return nil
	}
	return int64(part(t))
}

func dateYear(v any) any  { return datePart(v, time.Time.Year) }
func dateMonth(v any) any { return datePart(v, func(t time.Time) int { return int(t.Month()) }) }
func dateDay(v any) any   { return datePart(v, time.Time.Day) }

func timeHour(v any) any   { return datePart(v, time.Time.Hour) }
func timeMinute(v any) any { return datePart(v, time.Time.Minute) }
func timeSecond(v any) any { return datePart(v, time.Time.Second) }

func dateQuarter(v any) any {
	return datePart(v, func(t time.Time) int { return (int(t.Month())-1)/3 + 1 })
}

// validPart is datePart for fields the zero date does not have.
func validPart(v any, part func(time.Time) any) any {
	t, ok := parseDateTime(v)
	if !ok {
		return nil
	}
	return part(t)
}

// dateDayOfWeek numbers days from 1 for Sunday.
func dateDayOfWeek(v any) any {
	return validPart(v, func(t time.Time) any { return int64(t.Weekday()) + 1 })
}

// dateWeekday numbers days from 0 for Monday.
func dateWeekday(v any) any {
	return validPart(v, func(t time.Time) any { return int64((t.Weekday() + 6) % 7) })
}

func dateDayOfYear(v any) any {
	return validPart(v, func(t time.Time) any { return int64(t.YearDay()) })
}

func dateDayName(v any) any {
	return validPart(v, func(t time.Time) any { return t.Weekday().String() })
}

func dateMonthName(v any) any {
	return validPart(v, func(t time.Time) any { return t.Month().String() })
}

func dateToDays(v any) any {
	return validPart(v, func(t time.Time) any { return dayNumber(t.Year(), int(t.Month()), t.Day()) })
}

// dateWeek is WEEK(date[, mode]).
func dateWeek(args ...any) any {
	if len(args) == 0 || len(args) > 2 {
		return nil
	}
	mode := int64(0)
	if len(args) == 2 {
		m, ok := toInt(args[1])
		if !ok {
			return nil
		}
		mode = m
	}
	return validPart(args[0], func(t time.Time) any {
		week, _ := calcWeek(t, weekMode(int(mode)))
		return int64(week)
	})
}

// dayNumber counts days from year 0 the way TO_DAYS does.
func dayNumber(year, month, day int) int64 {
	if year == 0 && month == 0 {
		return 0
	}
	y, m, d := int64(year), int64(month), int64(day)
	n := 365*y + 31*(m-1) + d
	if m <= 2 {
		y--
	} else {
		n -= (m*4 + 23) / 10
	}
	return n + y/4 - ((y/100+1)*3)/4
}

func daysInYear(year int) int64 {
	if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
		return 366
	}
	return 365
}

const (
	weekMondayFirst = 1 << iota
	weekYear
	weekFirstWeekday
)

// weekMode turns a WEEK() mode argument into behaviour flags.
func weekMode(mode int) int {
	f := mode & 7
	if f&weekMondayFirst == 0 {
		f ^= weekFirstWeekday
	}
	return f
}

// calcWeek returns the week number of t and the year the week belongs to.
func calcWeek(t time.Time, behaviour int) (int, int) {
	year := t.Year()
	daynr := dayNumber(year, int(t.Month()), t.Day())
	first := dayNumber(year, 1, 1)
	mondayFirst := behaviour&weekMondayFirst != 0
	weekYearFlag := behaviour&weekYear != 0
	firstWeekday := behaviour&weekFirstWeekday != 0

	offset := int64(5)
	if !mondayFirst {
		offset = 6
	}
	weekday := (first + offset) % 7

	if t.Month() == time.January && int64(t.Day()) <= 7-weekday {
		if !weekYearFlag && ((firstWeekday && weekday != 0) || (!firstWeekday && weekday >= 4)) {
			return 0, year
		}
		weekYearFlag = true
		year--
		days := daysInYear(year)
		first -= days
		weekday = (weekday + 53*7 - days) % 7
	}

	var days int64
	if (firstWeekday && weekday != 0) || (!firstWeekday && weekday >= 4) {
		days = daynr - (first + (7 - weekday))
	} else {
		days = daynr - (first - weekday)
	}
	if weekYearFlag && days >= 52*7 {
		weekday = (weekday + daysInYear(year)) % 7
		if (!firstWeekday && weekday < 4) || (firstWeekday && weekday == 0) {
			return 1, year + 1
		}
	}
	return int(days/7 + 1), year
}

var ordinalSuffixes = [...]string{"th", "st", "nd", "rd"}

func ordinal(day int) string {
	suffix := "th"
	if day%100 < 11 || day%100 > 13 {
		if d := day % 10; d < len(ordinalSuffixes) {
			suffix = ordinalSuffixes[d]
		}
	}
	return strconv.Itoa(day) + suffix
}

func twelveHour(t time.Time) int {
	return (t.Hour()+11)%12 + 1
}

func meridiem(t time.Time) string {
	if t.Hour() < 12 {
		return "AM"
	}
	return "PM"
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// formatDate renders t with a DATE_FORMAT pattern. An unknown specifier
// stands for its own character.
func formatDate(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'a':
			b.WriteString(t.Weekday().String()[:3])
		case 'b':
			b.WriteString(t.Month().String()[:3])
		case 'c':
			b.WriteString(strconv.Itoa(int(t.Month())))
		case 'D':
			b.WriteString(ordinal(t.Day()))
		case 'd':
			b.WriteString(pad(t.Day(), 2))
		case 'e':
			b.WriteString(strconv.Itoa(t.Day()))
		case 'f':
			b.WriteString(pad(t.Nanosecond()/1000, 6))
		case 'H':
			b.WriteString(pad(t.Hour(), 2))
		case 'h', 'I':
			b.WriteString(pad(twelveHour(t), 2))
		case 'i':
			b.WriteString(pad(t.Minute(), 2))
		case 'j':
			b.WriteString(pad(t.YearDay(), 3))
		case 'k':
			b.WriteString(strconv.Itoa(t.Hour()))
		case 'l':
			b.WriteString(strconv.Itoa(twelveHour(t)))
		case 'M':
			b.WriteString(t.Month().String())
		case 'm':
			b.WriteString(pad(int(t.Month()), 2))
		case 'p':
			b.WriteString(meridiem(t))
		case 'r':
			b.WriteString(pad(twelveHour(t), 2) + ":" + pad(t.Minute(), 2) + ":" + pad(t.Second(), 2) + " " + meridiem(t))
		case 'S', 's':
			b.WriteString(pad(t.Second(), 2))
		case 'T':
			b.WriteString(t.Format(mysqlTimeLayout))
		case 'U':
			w, _ := calcWeek(t, weekMode(0))
			b.WriteString(pad(w, 2))
		case 'u':
			w, _ := calcWeek(t, weekMode(1))
			b.WriteString(pad(w, 2))
		case 'V':
			w, _ := calcWeek(t, weekMode(2))
			b.WriteString(pad(w, 2))
		case 'v':
			w, _ := calcWeek(t, weekMode(3))
			b.WriteString(pad(w, 2))
		case 'W':
			b.WriteString(t.Weekday().String())
		case 'w':
			b.WriteString(strconv.Itoa(int(t.Weekday())))
		case 'X':
			_, y := calcWeek(t, weekMode(2))
			b.WriteString(pad(y, 4))
		case 'x':
			_, y := calcWeek(t, weekMode(3))
			b.WriteString(pad(y, 4))
		case 'Y':
			b.WriteString(pad(t.Year(), 4))
		case 'y':
			b.WriteString(pad(t.Year()%100, 2))
		default:
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

func dateFormat(date, format any) any {
	f, ok := toText(format)
	if !ok {
		return nil
	}
	t, ok := parseDateTime(date)
	if !ok {
		return nil
	}
	return formatDate(t, f)
}

// fromUnixtime is FROM_UNIXTIME(ts[, format]).
func fromUnixtime(args ...any) any {
	if len(args) == 0 || len(args) > 2 || isNull(args...) {
		return nil
	}
	ts, ok := toFloat(args[0])
	if !ok || ts < 0 {
		return nil
	}
	sec := int64(ts)
	t := time.Unix(sec, int64((ts-float64(sec))*1e9)).UTC()
	if len(args) == 2 {
		f, _ := toText(args[1])
		return formatDate(t, f)
	}
	return t.Format(mysqlDateTimeLayout)
}

// unixTimestamp is UNIX_TIMESTAMP([date]).
func unixTimestamp(args ...any) any {
	if len(args) == 0 {
		return now().Unix()
	}
	if len(args) > 1 {
		return nil
	}
	if zeroDate(args[0]) {
		return int64(0)
	}
	t, ok := parseDateTime(args[0])
	if !ok {
		return nil
	}
	if u := t.Unix(); u > 0 {
		return u
	}
	return int64(0)
}

func dateDiff(a, b any) any {
	ta, ok := parseDateTime(a)
	if !ok {
		return nil
	}
	tb, ok := parseDateTime(b)
	if !ok {
		return nil
	}
	return dayNumber(ta.Year(), int(ta.Month()), ta.Day()) - dayNumber(tb.Year(), int(tb.Month()), tb.Day())
}

// monthsBetween counts whole months from a to b.
func monthsBetween(a, b time.Time) int64 {
	neg := b.Before(a)
	if neg {
		a, b = b, a
	}
	months := int64(b.Year()-a.Year())*12 + int64(b.Month()-a.Month())
	ac := time.Date(0, 1, a.Day(), a.Hour(), a.Minute(), a.Second(), a.Nanosecond(), time.UTC)
	bc := time.Date(0, 1, b.Day(), b.Hour(), b.Minute(), b.Second(), b.Nanosecond(), time.UTC)
	if bc.Before(ac) {
		months--
	}
	if neg {
		return -months
	}
	return months
}

var secondsPerUnit = map[string]int64{
	"SECOND": 1,
	"MINUTE": 60,
	"HOUR":   3600,
	"DAY":    86400,
	"WEEK":   7 * 86400,
}

// timestampDiff is TIMESTAMPDIFF(unit, a, b), the whole units from a to b.
func timestampDiff(unit, a, b any) any {
	u, ok := toText(unit)
	if !ok {
		return nil
	}
	ta, ok := parseDateTime(a)
	if !ok {
		return nil
	}
	tb, ok := parseDateTime(b)
	if !ok {
		return nil
	}
	switch u = strings.ToUpper(u); u {
	case "MONTH":
		return monthsBetween(ta, tb)
	case "QUARTER":
		return monthsBetween(ta, tb) / 3
	case "YEAR":
		return monthsBetween(ta, tb) / 12
	}
	per, ok := secondsPerUnit[u]
	if !ok {
		return nil
	}
	return (tb.Unix() - ta.Unix()) / per
}

func lastDay(v any) any {
	t, ok := parseDateTime(v)
	if !ok {
		return nil
	}
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return last.Format(mysqlDateLayout)
}
