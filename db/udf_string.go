package db

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

var stringFunctions = []udf{
	{"concat_ws", concatWS, true},
	{"left", strLeft, true},
	{"right", strRight, true},
	{"reverse", strReverse, true},
	{"lpad", strLPad, true},
	{"rpad", strRPad, true},
	{"repeat", strRepeat, true},
	{"space", strSpace, true},
	{"find_in_set", findInSet, true},
	{"field", field, true},
	{"elt", elt, true},
	{"substring_index", substringIndex, true},
	{"strcmp", strCmp, true},
	{"locate", locate, true},
	{"regexp", regexpMatch, true},
}

// maxRepeat bounds the strings REPEAT, SPACE and the pad functions build,
// matching max_allowed_packet.
const maxRepeat = 64 << 20

func concatWS(args ...any) any {
	if len(args) < 2 {
		return nil
	}
	sep, ok := toText(args[0])
	if !ok {
		return nil
	}
	parts := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		if s, ok := toText(a); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// textAndCount reads the (str, n) argument pair most functions share.
func textAndCount(str, n any) ([]rune, int64, bool) {
	s, ok := toText(str)
	if !ok {
		return nil, 0, false
	}
	c, ok := toInt(n)
	if !ok {
		return nil, 0, false
	}
	return []rune(s), c, true
}

func strLeft(str, n any) any {
	r, c, ok := textAndCount(str, n)
	if !ok {
		return nil
	}
	if c <= 0 {
		return ""
	}
	if c >= int64(len(r)) {
		return string(r)
	}
	return string(r[:c])
}

func strRight(str, n any) any {
	r, c, ok := textAndCount(str, n)
	if !ok {
		return nil
	}
	if c <= 0 {
		return ""
	}
	if c >= int64(len(r)) {
		return string(r)
	}
	return string(r[int64(len(r))-c:])
}

func strReverse(str any) any {
	s, ok := toText(str)
	if !ok {
		return nil
	}
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// padding returns n runes of pad repeated, or false when pad is empty.
func padding(pad []rune, n int) ([]rune, bool) {
	if n == 0 {
		return nil, true
	}
	if len(pad) == 0 {
		return nil, false
	}
	out := make([]rune, n)
	for i := range out {
		out[i] = pad[i%len(pad)]
	}
	return out, true
}

func padArgs(str, n, pad any) ([]rune, int, []rune, bool) {
	r, c, ok := textAndCount(str, n)
	if !ok || c < 0 || c > maxRepeat {
		return nil, 0, nil, false
	}
	p, ok := toText(pad)
	if !ok {
		return nil, 0, nil, false
	}
	return r, int(c), []rune(p), true
}

func strLPad(str, n, pad any) any {
	r, c, p, ok := padArgs(str, n, pad)
	if !ok {
		return nil
	}
	if len(r) >= c {
		return string(r[:c])
	}
	fill, ok := padding(p, c-len(r))
	if !ok {
		return nil
	}
	return string(fill) + string(r)
}

func strRPad(str, n, pad any) any {
	r, c, p, ok := padArgs(str, n, pad)
	if !ok {
		return nil
	}
	if len(r) >= c {
		return string(r[:c])
	}
	fill, ok := padding(p, c-len(r))
	if !ok {
		return nil
	}
	return string(r) + string(fill)
}

func strRepeat(str, n any) any {
	r, c, ok := textAndCount(str, n)
	if !ok {
		return nil
	}
	if c <= 0 || len(r) == 0 {
		return ""
	}
	if c*int64(len(r)) > maxRepeat {
		return nil
	}
	return strings.Repeat(string(r), int(c))
}

func strSpace(n any) any {
	c, ok := toInt(n)
	if !ok || c > maxRepeat {
		return nil
	}
	if c <= 0 {
		return ""
	}
	return strings.Repeat(" ", int(c))
}

// findInSet returns the 1-based position of str in a comma-separated list.
func findInSet(str, list any) any {
	s, ok := toText(str)
	if !ok {
		return nil
	}
	l, ok := toText(list)
	if !ok {
		return nil
	}
	if l == "" || strings.Contains(s, ",") {
		return int64(0)
	}
	for i, item := range strings.Split(l, ",") {
		if strings.EqualFold(item, s) {
			return int64(i + 1)
		}
	}
	return int64(0)
}

// field returns the 1-based position of the first argument among the rest.
func field(args ...any) any {
	if len(args) < 2 || null(args[0]) {
		return int64(0)
	}
	numeric := true
	for _, a := range args {
		switch a.(type) {
		case int64, float64:
		default:
			numeric = numeric && null(a)
		}
	}
	for i, a := range args[1:] {
		if null(a) {
			continue
		}
		if numeric {
			x, _ := toFloat(args[0])
			y, _ := toFloat(a)
			if x == y {
				return int64(i + 1)
			}
			continue
		}
		x, _ := toText(args[0])
		y, _ := toText(a)
		if strings.EqualFold(x, y) {
			return int64(i + 1)
		}
	}
	return int64(0)
}

func elt(args ...any) any {
	if len(args) < 2 {
		return nil
	}
	n, ok := toInt(args[0])
	if !ok || n < 1 || n >= int64(len(args)) {
		return nil
	}
	return args[n]
}

func substringIndex(str, delim, count any) any {
	s, ok := toText(str)
	if !ok {
		return nil
	}
	d, ok := toText(delim)
	if !ok {
		return nil
	}
	c, ok := toInt(count)
	if !ok {
		return nil
	}
	if c == 0 || d == "" {
		return ""
	}
	parts := strings.Split(s, d)
	if c > 0 {
		if c >= int64(len(parts)) {
			return s
		}
		return strings.Join(parts[:c], d)
	}
	if -c >= int64(len(parts)) {
		return s
	}
	return strings.Join(parts[int64(len(parts))+c:], d)
}

// strCmp compares case-insensitively, as the default collation does.
func strCmp(a, b any) any {
	x, ok := toText(a)
	if !ok {
		return nil
	}
	y, ok := toText(b)
	if !ok {
		return nil
	}
	return int64(strings.Compare(strings.ToLower(x), strings.ToLower(y)))
}

// locate is LOCATE(substr, str[, pos]) with 1-based character positions.
func locate(args ...any) any {
	if len(args) < 2 || len(args) > 3 || isNull(args...) {
		return nil
	}
	sub, _ := toText(args[0])
	s, _ := toText(args[1])
	pos := int64(1)
	if len(args) == 3 {
		pos, _ = toInt(args[2])
	}
	r := []rune(s)
	if pos < 1 || pos > int64(len(r))+1 {
		return int64(0)
	}
	rest := strings.ToLower(string(r[pos-1:]))
	i := strings.Index(rest, strings.ToLower(sub))
	if i < 0 {
		return int64(0)
	}
	return pos + int64(len([]rune(rest[:i])))
}

var regexpCache, _ = lru.New[string, *regexp.Regexp](256)

// regexpMatch backs "text REGEXP pattern". SQLite passes the pattern first.
// Matching is case-insensitive, as with the default collation.
func regexpMatch(pattern, text any) (any, error) {
	p, ok := toText(pattern)
	if !ok {
		return nil, nil
	}
	s, ok := toText(text)
	if !ok {
		return nil, nil
	}
	re, ok := regexpCache.Get(p)
	if !ok {
		var err error
		if re, err = regexp.Compile("(?i)" + p); err != nil {
			return nil, err
		}
		regexpCache.Add(p, re)
	}
	if re.MatchString(s) {
		return int64(1), nil
	}
	return int64(0), nil
}
