// Package store implements the default key/value store consumed by the
// driver package: slash-path keys with metadata and reference counts,
// the concrete stand-in for the "external" store interface described by
// the TOML driver's grammar callback contract.
package store

import "strings"

// Key is a single configuration key, addressable by a slash-separated
// hierarchical name. It carries a string value (or a binary marker), an
// ordered set of metadata, and a reference count shared by every stack
// frame and slot that currently holds it.
type Key struct {
	name   string
	value  string
	binary bool
	meta   map[string]string
	order  []string // insertion order of meta keys, for stable comment/#n iteration
	refs   int
}

// NewKey creates a fresh key with the given fully escaped name and a
// reference count of zero; the caller is expected to IncRef it once it
// is handed to a stack frame or slot.
func NewKey(name string) *Key {
	return &Key{name: name, meta: make(map[string]string)}
}

// Dup returns a new key with the same name, value, binary flag, and
// metadata as k, but a fresh reference count of zero. The driver never
// mutates a shared key directly; it always works on a locally owned
// duplicate.
func (k *Key) Dup() *Key {
	if k == nil {
		return nil
	}
	d := &Key{
		name:   k.name,
		value:  k.value,
		binary: k.binary,
	}
	if len(k.meta) > 0 {
		d.meta = make(map[string]string, len(k.meta))
		for _, name := range k.order {
			d.meta[name] = k.meta[name]
			d.order = append(d.order, name)
		}
	} else {
		d.meta = make(map[string]string)
	}
	return d
}

// Name returns the key's fully qualified slash-separated path.
func (k *Key) Name() string { return k.name }

// Rename replaces the key's name outright, keeping its value, binary
// flag, and metadata intact. Used where a key's final name has to be
// computed as a whole rather than built incrementally via
// AppendBaseName/AppendIndexBaseName.
func (k *Key) Rename(name string) { k.name = name }

// Value returns the key's string value. Binary keys report an empty
// string here; use Binary to distinguish "empty string" from "binary".
func (k *Key) Value() string { return k.value }

// Binary reports whether the key was committed via SetBinary rather
// than SetString.
func (k *Key) Binary() bool { return k.binary }

// SetString stores v as the key's value and clears the binary flag.
func (k *Key) SetString(v string) {
	k.value = v
	k.binary = false
}

// SetBinary marks the key as holding a binary payload. The driver only
// ever calls this with an empty payload (the null-indicator sentinel);
// a richer binary payload is out of scope (the base64 plugin's job).
func (k *Key) SetBinary() {
	k.value = ""
	k.binary = true
}

// SetMeta sets a metadata value by name, preserving first-seen order
// for names that are iterated (comment/#n slots).
func (k *Key) SetMeta(name, value string) {
	if k.meta == nil {
		k.meta = make(map[string]string)
	}
	if _, exists := k.meta[name]; !exists {
		k.order = append(k.order, name)
	}
	k.meta[name] = value
}

// GetMeta looks up a metadata value by name.
func (k *Key) GetMeta(name string) (string, bool) {
	v, ok := k.meta[name]
	return v, ok
}

// MetaNames returns metadata names in first-set order.
func (k *Key) MetaNames() []string {
	out := make([]string, len(k.order))
	copy(out, k.order)
	return out
}

// IncRef increments the key's reference count and returns the new
// count.
func (k *Key) IncRef() int {
	k.refs++
	return k.refs
}

// DecRef decrements the key's reference count and returns the new
// count. It never goes below zero.
func (k *Key) DecRef() int {
	if k.refs > 0 {
		k.refs--
	}
	return k.refs
}

// RefCount reports the key's current reference count.
func (k *Key) RefCount() int { return k.refs }

// AppendBaseName appends one path segment to the key's name, escaping
// any literal '/' or '\' in the segment so the hierarchy encoded by the
// name stays unambiguous.
func (k *Key) AppendBaseName(segment string) {
	escaped := escapeSegment(segment)
	if k.name == "" {
		k.name = escaped
		return
	}
	k.name = k.name + "/" + escaped
}

// AppendIndexBaseName appends an array-index segment ("#0", "#1", ...)
// to the key's name.
func (k *Key) AppendIndexBaseName(idx uint64) {
	k.AppendBaseName(IndexBaseName(idx))
}

// IndexBaseName formats an array index the way TOML-array-of-tables and
// inline-array element keys name their segments.
func IndexBaseName(idx uint64) string {
	return "#" + uitoa(idx)
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func escapeSegment(s string) string {
	if !strings.ContainsAny(s, "/\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// BaseName returns the last path segment of the key's name.
func (k *Key) BaseName() string {
	idx := strings.LastIndex(k.name, "/")
	if idx < 0 {
		return k.name
	}
	return k.name[idx+1:]
}

// CompareNames orders two keys by name, the way the external store's
// compare-names operation does.
func CompareNames(a, b *Key) int {
	return strings.Compare(a.Name(), b.Name())
}

// IsBelow reports whether b's name is a strict descendant of a's name
// (a is an ancestor path component of b).
func IsBelow(a, b *Key) bool {
	an, bn := a.Name(), b.Name()
	if an == bn {
		return false
	}
	return strings.HasPrefix(bn, an+"/")
}
