package env

import (
	"os"
	"sort"
	"strings"
)

// Compose builds a worker environment: the host environment first, then
// each overrides list in order ("K=V" entries, later wins). Values may
// reference other variables as ${VAR}; expansion uses the composed map
// and is not recursive. Entries with an empty key are dropped.
func Compose(overrides ...[]string) []string {
	return ComposeOver(os.Environ(), overrides...)
}

// ComposeOver is Compose with an explicit base instead of the host environment.
func ComposeOver(base []string, overrides ...[]string) []string {
	m := toMap(base)
	for _, list := range overrides {
		for k, v := range toMap(list) {
			m[k] = v
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+expand(m[k], m))
	}
	return out
}

func toMap(kvs []string) map[string]string {
	m := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		if i := strings.IndexByte(kv, '='); i > 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	return m
}

func expand(s string, m map[string]string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, func(k string) string { return m[k] })
}
