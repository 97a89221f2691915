package objlit

import (
	"regexp"
	"sync"
)

var keyPatterns sync.Map // string -> *regexp.Regexp

func keyPattern(key string) *regexp.Regexp {
	if re, ok := keyPatterns.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	q := regexp.QuoteMeta(key)
	re := regexp.MustCompile(`(?:^|[^\w$])(?:"` + q + `"|'` + q + `'|` + q + `)\s*[:=]`)
	keyPatterns.Store(key, re)
	return re
}

// FindKey returns the parsed value of every "key: value" or "key = value"
// assignment of key in src, in source order. Occurrences whose value does
// not parse are skipped, as are comparisons (==) and arrow functions (=>).
func FindKey(src, key string) []any {
	var out []any
	for _, loc := range keyPattern(key).FindAllStringIndex(src, -1) {
		end := loc[1]
		if src[end-1] == '=' && end < len(src) && (src[end] == '=' || src[end] == '>') {
			continue
		}
		v, _, err := ParseAt(src, end)
		if err != nil {
			continue
		}
		if _, ok := v.(Expr); ok {
			continue
		}
		out = append(out, v)
	}
	return out
}
