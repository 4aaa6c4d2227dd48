// Package cache memoizes pipeline results keyed by function identity and
// argument values.
package cache

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Stats reports memo usage.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// Memo is a process-wide memo table. Entries live until Reset.
type Memo struct {
	mu      sync.Mutex
	entries map[string]any
	hits    uint64
	misses  uint64
	log     zerolog.Logger
}

// New returns an empty memo table.
func New(log zerolog.Logger) *Memo {
	return &Memo{
		entries: make(map[string]any),
		log:     log.With().Str("component", "cache").Logger(),
	}
}

// Key encodes fn and args into a canonical key. Map arguments, at any depth,
// are encoded as key/value pairs sorted by their encoded key, so equal maps
// produce equal keys; slices keep their order.
func Key(fn string, args ...any) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeString(fn); err != nil {
		return "", fmt.Errorf("encode key %s: %w", fn, err)
	}
	for i, a := range args {
		c, err := canonical(reflect.ValueOf(a))
		if err != nil {
			return "", fmt.Errorf("encode key %s arg %d: %w", fn, i, err)
		}
		if err := enc.Encode(c); err != nil {
			return "", fmt.Errorf("encode key %s arg %d: %w", fn, i, err)
		}
	}
	return buf.String(), nil
}

// canonical replaces every map reachable through slices, arrays and maps
// with a slice of [key, value] pairs in encoded-key order.
func canonical(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		type pair struct {
			key []byte
			kv  [2]any
		}
		pairs := make([]pair, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k, err := canonical(iter.Key())
			if err != nil {
				return nil, err
			}
			val, err := canonical(iter.Value())
			if err != nil {
				return nil, err
			}
			raw, err := msgpack.Marshal(k)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair{key: raw, kv: [2]any{k, val}})
		}
		sort.Slice(pairs, func(i, j int) bool { return bytes.Compare(pairs[i].key, pairs[j].key) < 0 })
		out := make([][2]any, len(pairs))
		for i, p := range pairs {
			out[i] = p.kv
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return v.Interface(), nil
		}
		if !containsMap(v.Type().Elem()) {
			return v.Interface(), nil
		}
		out := make([]any, v.Len())
		for i := range out {
			c, err := canonical(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil, nil
		}
		if containsMap(v.Elem().Type()) {
			return canonical(v.Elem())
		}
	}
	return v.Interface(), nil
}

func containsMap(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Map, reflect.Interface:
		return true
	case reflect.Slice, reflect.Array, reflect.Pointer:
		return containsMap(t.Elem())
	}
	return false
}

// Do returns the memoized result of fn(args...) or runs compute and stores
// its result. Errors are returned but never stored. compute runs outside
// the lock, so concurrent misses on the same key may both compute.
func Do[T any](m *Memo, fn string, args []any, compute func() (T, error)) (T, error) {
	key, err := Key(fn, args...)
	if err != nil {
		var zero T
		return zero, err
	}

	m.mu.Lock()
	if v, ok := m.entries[key]; ok {
		if typed, ok := v.(T); ok {
			m.hits++
			m.mu.Unlock()
			m.log.Debug().Str("fn", fn).Msg("memo hit")
			return typed, nil
		}
	}
	m.misses++
	m.mu.Unlock()

	v, err := compute()
	if err != nil {
		return v, err
	}

	m.mu.Lock()
	m.entries[key] = v
	m.mu.Unlock()
	m.log.Debug().Str("fn", fn).Msg("memo store")
	return v, nil
}

// Stats returns a snapshot of the usage counters.
func (m *Memo) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Hits: m.hits, Misses: m.misses, Entries: len(m.entries)}
}

// Reset drops every entry.
func (m *Memo) Reset() {
	m.mu.Lock()
	m.entries = make(map[string]any)
	m.mu.Unlock()
}
