package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Eval 在内存中对记录求值
func (p Predicate) Eval(r Record) bool {
	switch p.Op {
	case OpAnd:
		for _, a := range p.Args {
			if !a.Eval(r) {
				return false
			}
		}
		return true
	case OpOr:
		for _, a := range p.Args {
			if a.Eval(r) {
				return true
			}
		}
		return false
	}

	v, ok := r.Field(p.Field)
	if !ok || v == nil {
		return false
	}

	switch p.Op {
	case OpContains:
		return strings.Contains(lower(v), lower(p.Value))
	case OpStartsWith:
		return strings.HasPrefix(lower(v), lower(p.Value))
	case OpEndsWith:
		return strings.HasSuffix(lower(v), lower(p.Value))
	case OpEq:
		return equal(v, p.Value)
	case OpGe:
		n, ok := toFloat(v)
		bound, okBound := toFloat(p.Value)
		return ok && okBound && n >= bound
	case OpLe:
		n, ok := toFloat(v)
		bound, okBound := toFloat(p.Value)
		return ok && okBound && n <= bound
	case OpHasToken:
		return hasToken(fmt.Sprint(v), fmt.Sprint(p.Value), p.Delimiter)
	}
	return false
}

// Filter 返回满足谓词的记录
func Filter[T Record](records []T, p Predicate) []T {
	var out []T
	for _, r := range records {
		if p.Eval(r) {
			out = append(out, r)
		}
	}
	return out
}

func hasToken(s, token, delimiter string) bool {
	if delimiter == "" {
		return strings.TrimSpace(s) == token
	}
	for _, part := range strings.Split(s, delimiter) {
		if strings.TrimSpace(part) == token {
			return true
		}
	}
	return false
}

func lower(v any) string {
	return strings.ToLower(fmt.Sprint(v))
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
