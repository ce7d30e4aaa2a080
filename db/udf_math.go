package db

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var mathFunctions = []udf{
	{"rand", mathRand, false},
	{"sign", mathSign, true},
	{"truncate", mathTruncate, true},
	{"mod", mathMod, true},
	{"ceil", mathCeil, true},
	{"ceiling", mathCeil, true},
	{"floor", mathFloor, true},
	{"pi", func() float64 { return math.Pi }, true},
	{"degrees", unary(func(x float64) float64 { return x * 180 / math.Pi }), true},
	{"radians", unary(func(x float64) float64 { return x * math.Pi / 180 }), true},
	{"sin", unary(math.Sin), true},
	{"cos", unary(math.Cos), true},
	{"tan", unary(math.Tan), true},
	{"cot", mathCot, true},
	{"asin", domain(math.Asin, -1, 1), true},
	{"acos", domain(math.Acos, -1, 1), true},
	{"atan", mathAtan, true},
	{"atan2", mathAtan2, true},
	{"exp", unary(math.Exp), true},
	{"sqrt", domain(math.Sqrt, 0, math.Inf(1)), true},
	{"ln", positive(math.Log), true},
	{"log2", positive(math.Log2), true},
	{"log10", positive(math.Log10), true},
	{"log", mathLog, true},
	{"pow", mathPow, true},
	{"power", mathPow, true},
	{"md5", hashHex(func(b []byte) []byte { h := md5.Sum(b); return h[:] }), true},
	{"sha1", hashHex(func(b []byte) []byte { h := sha1.Sum(b); return h[:] }), true},
	{"sha", hashHex(func(b []byte) []byte { h := sha1.Sum(b); return h[:] }), true},
	{"sha2", sha2, true},
	{"uuid", mysqlUUID, false},
}

// unary lifts f to a NULL-propagating SQL function.
func unary(f func(float64) float64) func(any) any {
	return func(v any) any {
		x, ok := toFloat(v)
		if !ok {
			return nil
		}
		return result(f(x))
	}
}

// domain is unary returning NULL outside [lo, hi].
func domain(f func(float64) float64, lo, hi float64) func(any) any {
	return func(v any) any {
		x, ok := toFloat(v)
		if !ok || x < lo || x > hi {
			return nil
		}
		return result(f(x))
	}
}

func positive(f func(float64) float64) func(any) any {
	return func(v any) any {
		x, ok := toFloat(v)
		if !ok || x <= 0 {
			return nil
		}
		return f(x)
	}
}

// result maps NaN and infinities to NULL.
func result(x float64) any {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return x
}

// mathRand is RAND([seed]). A seed makes the value repeatable.
func mathRand(args ...any) any {
	if len(args) > 0 {
		seed, ok := toInt(args[0])
		if !ok {
			seed = 0
		}
		return rand.New(rand.NewSource(seed)).Float64()
	}
	return rand.Float64()
}

func mathSign(v any) any {
	x, ok := toFloat(v)
	if !ok {
		return nil
	}
	switch {
	case x < 0:
		return int64(-1)
	case x > 0:
		return int64(1)
	}
	return int64(0)
}

// mathTruncate drops digits beyond d decimals without rounding. Negative d
// zeroes digits left of the point.
func mathTruncate(v, digits any) any {
	d, ok := toInt(digits)
	if !ok {
		return nil
	}
	i, isInt := v.(int64)
	if isInt && d >= 0 {
		return i
	}
	x, ok := toFloat(v)
	if !ok {
		return nil
	}
	dec := decimal.NewFromFloat(x)
	if d >= 0 {
		f, _ := dec.Truncate(int32(d)).Float64()
		return f
	}
	unit := decimal.New(1, int32(-d))
	dec = dec.Div(unit).Truncate(0).Mul(unit)
	if isInt {
		return dec.IntPart()
	}
	f, _ := dec.Float64()
	return f
}

// mathMod keeps the dividend's sign. MOD(x, 0) is NULL.
func mathMod(a, b any) any {
	if isNull(a, b) {
		return nil
	}
	x, xInt := a.(int64)
	y, yInt := b.(int64)
	if xInt && yInt {
		if y == 0 {
			return nil
		}
		return x % y
	}
	fx, _ := toFloat(a)
	fy, _ := toFloat(b)
	if fy == 0 {
		return nil
	}
	return math.Mod(fx, fy)
}

// integral returns x as an integer when it fits.
func integral(x float64) any {
	if x >= math.MinInt64 && x < math.MaxInt64 {
		return int64(x)
	}
	return x
}

func mathCeil(v any) any {
	if i, ok := v.(int64); ok {
		return i
	}
	x, ok := toFloat(v)
	if !ok {
		return nil
	}
	return integral(math.Ceil(x))
}

func mathFloor(v any) any {
	if i, ok := v.(int64); ok {
		return i
	}
	x, ok := toFloat(v)
	if !ok {
		return nil
	}
	return integral(math.Floor(x))
}

func mathCot(v any) any {
	x, ok := toFloat(v)
	if !ok {
		return nil
	}
	t := math.Tan(x)
	if t == 0 {
		return nil
	}
	return 1 / t
}

// mathAtan is ATAN(x) or ATAN(y, x).
func mathAtan(args ...any) any {
	switch len(args) {
	case 1:
		return unary(math.Atan)(args[0])
	case 2:
		return mathAtan2(args[0], args[1])
	}
	return nil
}

func mathAtan2(y, x any) any {
	fy, ok := toFloat(y)
	if !ok {
		return nil
	}
	fx, ok := toFloat(x)
	if !ok {
		return nil
	}
	return math.Atan2(fy, fx)
}

// mathLog is LOG(x) or LOG(base, x).
func mathLog(args ...any) any {
	switch len(args) {
	case 1:
		return positive(math.Log)(args[0])
	case 2:
		base, ok := toFloat(args[0])
		if !ok {
			return nil
		}
		x, ok := toFloat(args[1])
		if !ok || base <= 0 || base == 1 || x <= 0 {
			return nil
		}
		return math.Log(x) / math.Log(base)
	}
	return nil
}

func mathPow(a, b any) any {
	x, ok := toFloat(a)
	if !ok {
		return nil
	}
	y, ok := toFloat(b)
	if !ok {
		return nil
	}
	return result(math.Pow(x, y))
}

func hashHex(sum func([]byte) []byte) func(any) any {
	return func(v any) any {
		s, ok := toText(v)
		if !ok {
			return nil
		}
		return hex.EncodeToString(sum([]byte(s)))
	}
}

// sha2 is SHA2(str, bits). Zero bits means 256; other lengths are NULL.
func sha2(v, bits any) any {
	s, ok := toText(v)
	if !ok {
		return nil
	}
	n, ok := toInt(bits)
	if !ok {
		return nil
	}
	b := []byte(s)
	switch n {
	case 0, 256:
		h := sha256.Sum256(b)
		return hex.EncodeToString(h[:])
	case 224:
		h := sha256.Sum224(b)
		return hex.EncodeToString(h[:])
	case 384:
		h := sha512.Sum384(b)
		return hex.EncodeToString(h[:])
	case 512:
		h := sha512.Sum512(b)
		return hex.EncodeToString(h[:])
	}
	return nil
}

// mysqlUUID returns a time-based UUID, the version MySQL generates.
func mysqlUUID() (string, error) {
	id, err := uuid.NewUUID()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
