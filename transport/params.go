package transport

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Params are query parameters with an explicit encoding.
type Params interface {
	Encode() string
}

// Values are pre-encoded parameters passed through unchanged.
type Values url.Values

// Encode implements Params.
func (v Values) Encode() string {
	return url.Values(v).Encode()
}

// Query is a structured parameter object. Nested maps and slices are serialized with
// bracket notation (a[b]=1, list[0]=x); keys are sorted at every level, nil values
// are skipped.
type Query map[string]any

// Encode implements Params.
func (q Query) Encode() string {
	var pairs []string
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = appendQueryValue(pairs, k, q[k])
	}
	return strings.Join(pairs, "&")
}

func appendQueryValue(pairs []string, key string, v any) []string {
	if v == nil {
		return pairs
	}
	switch val := v.(type) {
	case string:
		return append(pairs, escapePair(key, val))
	case json.Number:
		return append(pairs, escapePair(key, val.String()))
	case bool:
		return append(pairs, escapePair(key, strconv.FormatBool(val)))
	case time.Time:
		return append(pairs, escapePair(key, val.UTC().Format(time.RFC3339Nano)))
	case fmt.Stringer:
		return append(pairs, escapePair(key, val.String()))
	case map[string]any:
		return appendQueryMap(pairs, key, val)
	case Query:
		return appendQueryMap(pairs, key, val)
	case []any:
		for i, item := range val {
			pairs = appendQueryValue(pairs, key+"["+strconv.Itoa(i)+"]", item)
		}
		return pairs
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return pairs
		}
		return appendQueryValue(pairs, key, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			pairs = appendQueryValue(pairs, key+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface())
		}
		return pairs
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return appendQueryMap(pairs, key, m)
	}
	return append(pairs, escapePair(key, fmt.Sprint(v)))
}

func appendQueryMap(pairs []string, prefix string, m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = appendQueryValue(pairs, prefix+"["+k+"]", m[k])
	}
	return pairs
}

// escapePair percent-encodes both sides, brackets included, with spaces as %20.
func escapePair(key, value string) string {
	return escape(key) + "=" + escape(value)
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
