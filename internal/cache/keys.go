package cache

import "strings"

// KeyParts is the structured identity of a cached computation: an entity
// (key family), an operation kind, and ordered discriminator fields. Both
// cache adapters build keys through it so that key shape -- and therefore
// collision and invalidation behavior -- is a single, type-checked concern.
type KeyParts struct {
	Entity string   // key family, e.g. "orders", "http"
	Op     string   // operation kind, e.g. "list", "byId", "GET"
	Fields []string // ordered discriminators: filters, sort, page, actor
}

// keyEscaper keeps field values from colliding with the separator, making
// String a total, injective serialization.
var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// String serializes the parts to a cache key of the form
// entity:op:field1:field2:... Every input produces a key; there is no
// error path.
func (k KeyParts) String() string {
	var b strings.Builder
	b.Grow(len(k.Entity) + len(k.Op) + 16*len(k.Fields))
	b.WriteString(k.Entity)
	b.WriteByte(':')
	b.WriteString(k.Op)
	for _, f := range k.Fields {
		b.WriteByte(':')
		b.WriteString(keyEscaper.Replace(f))
	}
	return b.String()
}
