package metadata

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain/search"
)

var (
	idType      = reflect.TypeOf(id.ID{})
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// Inspect analyzes a struct and returns its EntityDef.
//
// Besides `json` and `db` it reads three tags:
//
//	label:"Joining date"
//	ref:"employee"
//	search:"searchable,sortable,filter=multiselect,options=ACTIVE|ON_LEAVE"
//
// The filter kinds are those of package search; "partial" makes a text
// filter match substrings. A `date` field type is a time.Time whose
// filter kind is date or date_range, everything else is a datetime.
func Inspect(entity any, name string, entityType EntityType) EntityDef {
	t := reflect.TypeOf(entity)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name == "" {
		name = lowerFirst(t.Name())
	}

	def := EntityDef{
		Name:   name,
		Label:  guessLabel(t.Name()),
		Type:   entityType,
		Fields: make([]FieldDef, 0, t.NumField()),
	}
	inspectStruct(t, &def)
	return def
}

func inspectStruct(t reflect.Type, def *EntityDef) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		if field.Anonymous {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				inspectStruct(ft, def)
			}
			continue
		}

		name := jsonName(field)
		if name == "-" {
			continue
		}

		fDef := FieldDef{
			Name:     name,
			Label:    fieldLabel(field),
			Column:   dbName(field),
			Required: isRequired(field),
			ReadOnly: isReadOnly(field),
		}
		applySearchTag(&fDef, field.Tag.Get("search"))
		mapFieldType(&fDef, field)

		def.Fields = append(def.Fields, fDef)
	}
}

func applySearchTag(def *FieldDef, tag string) {
	if tag == "" {
		return
	}
	for _, part := range strings.Split(tag, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch key {
		case "searchable":
			def.Searchable = true
		case "sortable":
			def.Sortable = true
		case "partial":
			def.Partial = true
		case "filter":
			def.Filter = search.FilterKind(value)
		case "options":
			def.Options = strings.Split(value, "|")
		}
	}
}

func mapFieldType(def *FieldDef, field reflect.StructField) {
	t := field.Type
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t {
	case idType:
		def.Type = TypeReference
		if ref := field.Tag.Get("ref"); ref != "" {
			def.ReferenceType = ref
		} else if base, ok := strings.CutSuffix(field.Name, "ID"); ok && base != "" {
			def.ReferenceType = lowerFirst(base)
		}
		return
	case timeType:
		def.Type = TypeDateTime
		if def.Filter == search.KindDate || def.Filter == search.KindDateRange {
			def.Type = TypeDate
		}
		return
	case decimalType:
		def.Type = TypeMoney
		def.Scale = 2
		return
	}

	switch t.Kind() {
	case reflect.String:
		def.Type = TypeString
		if len(def.Options) > 0 {
			def.Type = TypeEnum
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		def.Type = TypeInteger
	case reflect.Float32, reflect.Float64:
		def.Type = TypeNumber
		def.Scale = 2
	case reflect.Bool:
		def.Type = TypeBoolean
	default:
		def.Type = TypeString
	}
}

func jsonName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name
		}
	}
	return lowerFirst(field.Name)
}

func dbName(field reflect.StructField) string {
	tag := field.Tag.Get("db")
	if tag == "-" {
		return ""
	}
	return tag
}

func isRequired(field reflect.StructField) bool {
	tag, ok := field.Tag.Lookup("binding")
	return ok && strings.Contains(tag, "required")
}

func isReadOnly(field reflect.StructField) bool {
	switch field.Name {
	case "ID", "Version", "CreatedAt", "UpdatedAt", "CreatedBy", "UpdatedBy":
		return true
	}
	return false
}

func fieldLabel(field reflect.StructField) string {
	if label := field.Tag.Get("label"); label != "" {
		return label
	}
	return guessLabel(field.Name)
}

// guessLabel turns a Go identifier into words: "JoiningDate" -> "Joining date",
// "DepartmentID" -> "Department ID".
func guessLabel(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteByte(' ')
			}
			if nextLower {
				r = unicode.ToLower(r)
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
