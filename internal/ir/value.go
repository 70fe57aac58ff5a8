package ir

import (
	"slices"
	"unicode/utf16"
	"unicode/utf8"
)

// IRValue is the JSON-shaped tree that Encode produces from a core
// expression. MarshalCanonical turns it into the bytes that are hashed and
// stored.
//
// The set of implementations is closed: IRString, IRInt, IRBool, IRArray
// and IRObject. Non-integer numbers travel as IRString so that a hash never
// depends on float formatting.
type IRValue interface {
	irValue()
}

type (
	// IRString is a JSON string.
	IRString string
	// IRInt is a JSON integer.
	IRInt int64
	// IRBool is a JSON boolean.
	IRBool bool
	// IRArray keeps element order.
	IRArray []IRValue
	// IRObject is unordered; SortedKeys gives the canonical order.
	IRObject map[string]IRValue
)

func (IRString) irValue() {}
func (IRInt) irValue()    {}
func (IRBool) irValue()   {}
func (IRArray) irValue()  {}
func (IRObject) irValue() {}

// Kind returns the "kind" tag of an encoded node, or "" if obj is not one.
func (obj IRObject) Kind() string {
	k, _ := obj["kind"].(IRString)
	return string(k)
}

// SortedKeys returns the keys of obj ordered by UTF-16 code units, the order
// JSON canonicalization (RFC 8785) requires.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 orders a and b as sequences of UTF-16 code units without
// materializing them. Plain byte order only disagrees once a supplementary
// character meets a BMP character at or above U+E000.
func compareUTF16(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		a, b = a[na:], b[nb:]
		if ra == rb {
			continue
		}
		ua, ub := firstUnit(ra), firstUnit(rb)
		if ua == ub {
			// Same high surrogate; the low surrogates order like the runes.
			ua, ub = rune(ra), rune(rb)
		}
		if ua < ub {
			return -1
		}
		return 1
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

// firstUnit is the leading UTF-16 code unit of r.
func firstUnit(r rune) rune {
	if hi, _ := utf16.EncodeRune(r); hi != utf8.RuneError {
		return hi
	}
	return r
}

// node builds {"kind": kind, k1: v1, ...} from alternating key/value pairs.
func node(kind string, kv ...any) IRObject {
	obj := IRObject{"kind": IRString(kind)}
	for i := 0; i+1 < len(kv); i += 2 {
		obj[kv[i].(string)] = kv[i+1].(IRValue)
	}
	return obj
}
