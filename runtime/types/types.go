// Package types provides runtime types for the document adapter.
package types

import (
	"strings"
)

// DefaultIDField is the document field holding the identifier.
const DefaultIDField = "id"

// Record is a single document as exchanged with the document client.
type Record = map[string]interface{}

// Metadata records how many documents an operation touched.
type Metadata struct {
	Found   int `json:"found,omitempty"`
	Created int `json:"created,omitempty"`
	Updated int `json:"updated,omitempty"`
	Deleted int `json:"deleted,omitempty"`
}

// Add returns the field-wise sum of two metadata values.
func (m Metadata) Add(o Metadata) Metadata {
	return Metadata{
		Found:   m.Found + o.Found,
		Created: m.Created + o.Created,
		Updated: m.Updated + o.Updated,
		Deleted: m.Deleted + o.Deleted,
	}
}

// CollectionRef identifies the logical collection an operation targets.
type CollectionRef struct {
	// Name is the logical (mapper) name, e.g. "User".
	Name string
	// Collection overrides the remote collection id. Defaults to Name.
	Collection string
	// Database overrides the adapter's database id.
	Database string
	// Alias overrides the collection alias used inside compiled queries.
	Alias string
	// IDField overrides the adapter's identifier field.
	IDField string
}

// Ref creates a CollectionRef for a logical name.
func Ref(name string) CollectionRef {
	return CollectionRef{Name: name}
}

// CollectionID returns the remote collection id.
func (r CollectionRef) CollectionID() string {
	if r.Collection != "" {
		return r.Collection
	}
	return r.Name
}

// QueryAlias returns the alias used for the collection in compiled queries.
// Without an explicit alias the logical name is lower-cased and passed through
// Identifier.
func (r CollectionRef) QueryAlias() string {
	if r.Alias != "" {
		return r.Alias
	}
	return Identifier(strings.ToLower(r.Name))
}

// reservedWords are the keywords of the query dialect. They cannot be used as
// bare identifiers.
var reservedWords = map[string]bool{
	"select": true, "top": true, "value": true, "from": true, "where": true,
	"order": true, "by": true, "asc": true, "desc": true, "and": true,
	"or": true, "not": true, "true": true, "false": true, "null": true,
}

// IsReserved reports whether s is a dialect keyword, ignoring case.
func IsReserved(s string) bool {
	return reservedWords[strings.ToLower(s)]
}

// Identifier rewrites s into a valid query identifier. Characters outside
// [A-Za-z0-9_$] become underscores, a leading digit gets an underscore prefix
// and a keyword gets an underscore suffix.
func Identifier(s string) string {
	if s == "" {
		return "root"
	}
	var b strings.Builder
	for i, c := range s {
		switch {
		case c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			b.WriteRune(c)
		case c >= '0' && c <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	if IsReserved(b.String()) {
		b.WriteRune('_')
	}
	return b.String()
}
