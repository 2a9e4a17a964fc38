package helper

import (
	"errors"
	"math/big"
	"strconv"
)

// KeyMatchFunc reports whether the value under a key path like ".metadata.standard" or
// ".instances.[]" should be coerced.
type KeyMatchFunc func(key string) bool

// CoerceBigIntStrings walks a yaml.Unmarshal result (maps/slices/scalars) and converts string
// values that look like integers and overflow uint64 into *big.Int. It mutates map[string]any
// and []any in place.
func CoerceBigIntStrings(v any) any {
	return coerceBigIntStrings(v, "", nil)
}

// CoerceBigIntStringsForKeys is CoerceBigIntStrings restricted to the key paths matchFunc
// accepts.
func CoerceBigIntStringsForKeys(v any, matchFunc KeyMatchFunc) any {
	return coerceBigIntStrings(v, "", matchFunc)
}

func coerceBigIntStrings(v any, currentKey string, matchFunc KeyMatchFunc) any {
	switch x := v.(type) {
	case map[string]any:
		for k, vv := range x {
			x[k] = coerceBigIntStrings(vv, currentKey+"."+k, matchFunc)
		}

		return x

	case []map[string]any:
		for i := range x {
			// list elements share the key of the list
			x[i] = coerceBigIntStrings(x[i], currentKey+".[]", matchFunc).(map[string]any)
		}

		return x

	case []any:
		for i := range x {
			x[i] = coerceBigIntStrings(x[i], currentKey+".[]", matchFunc)
		}

		return x

	case string:
		if matchFunc != nil && !matchFunc(currentKey) {
			return x
		}
		if bi, ok := stringToBigIntIfOverflowUint64(x); ok {
			return bi
		}

		return x

	default:
		return v
	}
}

// stringToBigIntIfOverflowUint64 parses s only when it is an integer too large for int64 and
// uint64. Smaller integers are left to the YAML decoder, which reads them as numbers already.
func stringToBigIntIfOverflowUint64(s string) (*big.Int, bool) {
	if !overflows(strconv.ParseInt(s, 10, 64)) {
		return nil, false
	}
	if !overflows(strconv.ParseUint(s, 10, 64)) {
		return nil, false
	}

	return new(big.Int).SetString(s, 10)
}

func overflows[T int64 | uint64](_ T, err error) bool {
	var ne *strconv.NumError

	return errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange)
}
