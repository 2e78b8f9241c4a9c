// Package hash computes the canonical, stable hash of a State, used both
// for the Differ's stutter check and for keying screenshots (spec §4.7).
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/quickstrom/quickstrom-go/internal/jsonvalue"
	"github.com/quickstrom/quickstrom-go/internal/wire"
)

// State returns the hex-encoded SHA-256 hash of a state's canonical
// traversal: sorted selector order; elements in observed order within a
// selector; sorted key order within an element. The function itself is
// not security-critical — any stable 256-bit digest would do.
func State(s wire.State) string {
	h := sha256.New()
	writeState(h, s)
	return hex.EncodeToString(h.Sum(nil))
}

type writer interface {
	Write(p []byte) (int, error)
}

func writeState(w writer, s wire.State) {
	selectors := make([]string, 0, len(s))
	for sel := range s {
		selectors = append(selectors, sel)
	}
	sort.Strings(selectors)

	for _, sel := range selectors {
		writeString(w, sel)
		elems := s[sel]
		writeInt(w, len(elems))
		for _, el := range elems {
			writeElement(w, el)
		}
	}
}

func writeElement(w writer, el wire.ElementState) {
	keys := make([]string, 0, len(el))
	for k := range el {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writeInt(w, len(keys))
	for _, k := range keys {
		writeString(w, k)
		writeValue(w, el[k])
	}
}

func writeValue(w writer, v jsonvalue.Value) {
	writeInt(w, int(v.Kind))
	switch v.Kind {
	case jsonvalue.KindNull:
	case jsonvalue.KindBool:
		if v.Bool {
			w.Write([]byte{1})
		} else {
			w.Write([]byte{0})
		}
	case jsonvalue.KindNumber:
		writeString(w, formatNumber(v.Number))
	case jsonvalue.KindString:
		writeString(w, v.String)
	case jsonvalue.KindList:
		writeInt(w, len(v.List))
		for _, e := range v.List {
			writeValue(w, e)
		}
	case jsonvalue.KindMap:
		keys := v.SortedKeys()
		writeInt(w, len(keys))
		for _, k := range keys {
			writeString(w, k)
			writeValue(w, v.Map[k])
		}
	}
}

func writeString(w writer, s string) {
	writeInt(w, len(s))
	w.Write([]byte(s))
}

func writeInt(w writer, n int) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(n >> (8 * i))
	}
	w.Write(buf[:])
}

func formatNumber(f float64) string {
	// 'g' with -1 precision round-trips float64 without trailing-zero
	// noise, keeping the canonical encoding stable regardless of how the
	// value was produced.
	return strconv.FormatFloat(f, 'g', -1, 64)
}
