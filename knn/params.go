package knn

import (
	"math"
	"reflect"

	"github.com/YuminosukeSato/goknn/distance"
	"github.com/YuminosukeSato/goknn/pkg/errors"
)

// 動的な値（パラメータマップ、YAML、JSON）から受け取るパラメータの検証

// IntParam converts a dynamically typed parameter to int. Every integer
// kind is accepted, as is a finite float with no fractional part. Anything
// else, including numeric strings, fails with an error marked
// errors.ErrTypeMismatch.
func IntParam(name string, v interface{}) (int, error) {
	if v == nil {
		return 0, errors.NewTypeMismatchError(name, "an integer", v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt {
			return 0, errors.NewValidationError(name, "value overflows int", v)
		}
		return int(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, errors.NewTypeMismatchError(name, "an integer", v)
		}
		// float64(math.MaxInt) は 2^63 に丸められるため、上限は -MinInt との比較で判定する
		if f >= -float64(math.MinInt) || f < float64(math.MinInt) {
			return 0, errors.NewValidationError(name, "value overflows int", v)
		}
		return int(f), nil
	default:
		return 0, errors.NewTypeMismatchError(name, "an integer", v)
	}
}

// ValidateK checks that k is a positive neighbor count.
func ValidateK(k int) error {
	if k <= 0 {
		return errors.NewValidationError("k", "must be a positive integer", k)
	}
	return nil
}

// BackendParam converts a dynamically typed backend selector. A
// distance.Backend value is taken as is, a string goes through
// distance.ParseBackend.
func BackendParam(v interface{}) (distance.Backend, error) {
	switch b := v.(type) {
	case distance.Backend:
		if !b.Valid() {
			return distance.Reference, errors.NewValidationError("backend", "unknown backend", int(b))
		}
		return b, nil
	case string:
		return distance.ParseBackend(b)
	default:
		return distance.Reference, errors.NewTypeMismatchError("backend", "a string", v)
	}
}
