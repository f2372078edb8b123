package lang

import (
	"cmp"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"reflect"
	"slices"
)

// Truthy reports whether v counts as true in a condition.
// False, nil, numeric zero, the empty string and empty collections are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Chan:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	}

	return true
}

// ToInt converts a whole number of any numeric type to int.
func ToInt(v any) (int, error) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int(f), nil
		}
	}

	return 0, ErrArgType.With(
		slog.String("want", "integer"),
		slog.String("got", typeName(v)),
	)
}

// Iterate returns the (key, value) pairs of v in iteration order.
//
// Slices and arrays yield (index, element), maps yield (key, value) in sorted
// key order, strings yield (index, rune as string) and whole numbers n yield
// (i, i) for i in [0, n). keyed reports whether v is a map, in which case a
// single loop variable binds the key rather than the value.
func Iterate(v any) (seq iter.Seq2[any, any], keyed bool, err error) {
	switch x := v.(type) {
	case nil:
		return func(func(any, any) bool) {}, false, nil

	case []any:
		return func(yield func(any, any) bool) {
			for i, e := range x {
				if !yield(i, e) {
					return
				}
			}
		}, false, nil

	case map[string]any:
		keys := slices.Sorted(func(yield func(string) bool) {
			for k := range x {
				if !yield(k) {
					return
				}
			}
		})

		return func(yield func(any, any) bool) {
			for _, k := range keys {
				if !yield(k, x[k]) {
					return
				}
			}
		}, true, nil

	case string:
		return func(yield func(any, any) bool) {
			i := 0
			for _, r := range x {
				if !yield(i, string(r)) {
					return
				}
				i++
			}
		}, false, nil
	}

	if n, err := ToInt(v); err == nil {
		return func(yield func(any, any) bool) {
			for i := range n {
				if !yield(i, i) {
					return
				}
			}
		}, false, nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return func(yield func(any, any) bool) {
			for i := range rv.Len() {
				if !yield(i, rv.Index(i).Interface()) {
					return
				}
			}
		}, false, nil

	case reflect.Map:
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
		})

		return func(yield func(any, any) bool) {
			for _, k := range keys {
				if !yield(k.Interface(), rv.MapIndex(k).Interface()) {
					return
				}
			}
		}, true, nil
	}

	return nil, false, ErrNotIterable.With(slog.String("type", typeName(v)))
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}

	return reflect.TypeOf(v).String()
}
