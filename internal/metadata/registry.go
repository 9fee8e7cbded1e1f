// Package metadata describes records to clients: their fields, types and
// the search capabilities declared with `search` struct tags.
package metadata

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"staffdesk/internal/domain/search"
)

// EntityType defines the area a record belongs to.
type EntityType string

const (
	TypeDirectory EntityType = "directory" // HR reference data
	TypeJournal   EntityType = "journal"   // dated event logs such as visits
)

// FieldType defines the data type of a field.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeInteger   FieldType = "integer"
	TypeNumber    FieldType = "number"
	TypeBoolean   FieldType = "boolean"
	TypeDate      FieldType = "date"
	TypeDateTime  FieldType = "datetime"
	TypeReference FieldType = "reference"
	TypeEnum      FieldType = "enum"
	TypeMoney     FieldType = "money"
)

// EntityDef describes a record type.
type EntityDef struct {
	Name   string     `json:"name"`
	Label  string     `json:"label,omitempty"`
	Type   EntityType `json:"type"`
	Fields []FieldDef `json:"fields"`
}

// FieldDef describes a field.
type FieldDef struct {
	Name          string    `json:"name"`
	Label         string    `json:"label,omitempty"`
	Type          FieldType `json:"type"`
	Column        string    `json:"-"`
	ReferenceType string    `json:"referenceType,omitempty"` // e.g. "department"
	Required      bool      `json:"required,omitempty"`
	ReadOnly      bool      `json:"readOnly,omitempty"`
	Scale         int       `json:"scale,omitempty"`
	Options       []string  `json:"options,omitempty"`

	Filter     search.FilterKind `json:"filter,omitempty"`
	Searchable bool              `json:"searchable,omitempty"`
	Sortable   bool              `json:"sortable,omitempty"`
	Partial    bool              `json:"partial,omitempty"`
}

// Field looks up a field by its JSON name.
func (d EntityDef) Field(name string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Schema builds the search schema from the fields that declare search capabilities.
func (d EntityDef) Schema() *search.Schema {
	fields := make([]search.Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		if !f.Searchable && !f.Sortable && f.Filter == "" {
			continue
		}
		fields = append(fields, search.Field{
			ID:         f.Name,
			Column:     f.Column,
			Label:      f.Label,
			Kind:       f.Filter,
			Searchable: f.Searchable,
			Sortable:   f.Sortable,
			Partial:    f.Partial,
			Options:    f.Options,
		})
	}
	return search.NewSchema(d.Name, fields)
}

// Registry maps entity names to definitions. It is filled at startup and
// read by the metadata endpoints afterwards; it is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]EntityDef
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]EntityDef)}
}

// Register adds def, replacing an earlier definition with the same name.
func (r *Registry) Register(def EntityDef) {
	r.mu.Lock()
	r.defs[def.Name] = def
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (EntityDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// List returns the definitions ordered by name.
func (r *Registry) List() []EntityDef {
	r.mu.RLock()
	defs := slices.Collect(maps.Values(r.defs))
	r.mu.RUnlock()

	slices.SortFunc(defs, func(a, b EntityDef) int { return strings.Compare(a.Name, b.Name) })
	return defs
}
