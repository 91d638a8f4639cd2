package granary

import (
	"encoding/binary"
	"fmt"
	"hash"
	"reflect"
	"strings"
)

// SchemaTag computes the tag stored in the header of an attribute entry.
// It hashes the attribute name together with a structural description of the
// key and value types, so an entry written before a type change is detected
// instead of being decoded into the wrong shape.
func (c *Cache) SchemaTag(name string, keyType, valueType reflect.Type) uint64 {
	h := c.newHash()
	writeSchema(h, name, keyType, valueType)
	sum := h.Sum(nil)
	if len(sum) < 8 {
		// Short hashes are padded; only xxHash-sized sums are expected in practice.
		padded := make([]byte, 8)
		copy(padded[8-len(sum):], sum)
		sum = padded
	}
	return binary.BigEndian.Uint64(sum[len(sum)-8:])
}

func writeSchema(h hash.Hash, name string, keyType, valueType reflect.Type) {
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(describeType(keyType)))
	h.Write([]byte{0})
	h.Write([]byte(describeType(valueType)))
}

// describeType renders a deterministic structural description of t.
// Struct field names, order and kinds are included; methods are not.
func describeType(t reflect.Type) string {
	var b strings.Builder
	describeInto(&b, t, make(map[reflect.Type]bool))
	return b.String()
}

func describeInto(b *strings.Builder, t reflect.Type, seen map[reflect.Type]bool) {
	if t == nil {
		b.WriteString("nil")
		return
	}

	if t.Name() != "" {
		fmt.Fprintf(b, "%s.%s:", t.PkgPath(), t.Name())
	}

	switch t.Kind() {
	case reflect.Pointer:
		b.WriteString("*")
		describeInto(b, t.Elem(), seen)
	case reflect.Slice:
		b.WriteString("[]")
		describeInto(b, t.Elem(), seen)
	case reflect.Array:
		fmt.Fprintf(b, "[%d]", t.Len())
		describeInto(b, t.Elem(), seen)
	case reflect.Map:
		b.WriteString("map[")
		describeInto(b, t.Key(), seen)
		b.WriteString("]")
		describeInto(b, t.Elem(), seen)
	case reflect.Struct:
		if seen[t] {
			b.WriteString("<recursive>")
			return
		}
		seen[t] = true
		b.WriteString("struct{")
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			b.WriteString(f.Name)
			b.WriteString(" ")
			describeInto(b, f.Type, seen)
			b.WriteString(";")
		}
		b.WriteString("}")
		delete(seen, t)
	default:
		b.WriteString(t.Kind().String())
	}
}
