package propshape

import (
	"fmt"
	"math"
	"sort"

	"github.com/spf13/cast"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/props/expression"
	"github.com/jacerider/neo-alchemist/props/schematype"
	"github.com/jacerider/neo-alchemist/props/shapematch"
)

// Exclusive bounds are stored as inclusive ones, shifted by these steps.
const (
	integerStep = 1
	numberStep  = 1e-6
)

var fileEntity = content.EntityDataDefinition{EntityTypeID: "file"}

type base struct{}

func (base) Ref() string                    { return "" }
func (base) Applies(map[string]any) bool    { return true }
func (base) Plan(map[string]any) *Candidate { return nil }
func (base) kind()                          {}

// boolean

type booleanKind struct{ base }

func (booleanKind) ID() string            { return "boolean" }
func (booleanKind) Type() schematype.Type { return schematype.Boolean }

func (booleanKind) Plan(map[string]any) *Candidate {
	return &Candidate{
		FieldTypeProp: expression.FieldTypeProp{Type: "boolean", Prop: "value"},
		FieldWidget:   "boolean_checkbox",
	}
}

func (booleanKind) Validate(_ *Kinds, _ map[string]any, value any, path []string) error {
	if _, ok := value.(bool); !ok {
		return typeError(path, schematype.Boolean, value)
	}
	return nil
}

func (booleanKind) Massage(_ *Kinds, _ map[string]any, value any) (any, error) {
	return cast.ToBoolE(value)
}

// strings

type stringBase struct{ base }

func (stringBase) Type() schematype.Type { return schematype.String }

func (stringBase) Validate(_ *Kinds, schema map[string]any, value any, path []string) error {
	s, ok := value.(string)
	if !ok {
		return typeError(path, schematype.String, value)
	}
	if err := checkEnum(schema, value, path); err != nil {
		return err
	}
	n := len([]rune(s))
	if max, ok := schema["maxLength"]; ok && n > cast.ToInt(max) {
		return &ValueError{Path: path, Message: fmt.Sprintf("must be at most %d characters long", cast.ToInt(max))}
	}
	if min, ok := schema["minLength"]; ok && n < cast.ToInt(min) {
		return &ValueError{Path: path, Message: fmt.Sprintf("must be at least %d characters long", cast.ToInt(min))}
	}
	if pattern, ok := schema["pattern"].(string); ok && !shapematch.NewRegex(pattern).Check(s) {
		return &ValueError{Path: path, Message: fmt.Sprintf("does not match the pattern %q", pattern)}
	}
	if f, ok := schema["format"].(string); ok {
		format, err := schematype.ParseFormat(f)
		if err != nil {
			return &ValueError{Path: path, Message: err.Error()}
		}
		if req := format.Requirement(); !req.Unsupported() && !req.Check(s) {
			return &ValueError{Path: path, Message: fmt.Sprintf("is not a valid %s", f)}
		}
	}
	return nil
}

func (stringBase) Massage(_ *Kinds, _ map[string]any, value any) (any, error) {
	return cast.ToStringE(value)
}

// plainString reports whether a string schema carries nothing beyond what a
// specialized kind stores faithfully.
func plainString(schema map[string]any) bool {
	_, hasEnum := schema["enum"]
	_, hasPattern := schema["pattern"]
	return !hasEnum && !hasPattern
}

func hasFormat(schema map[string]any, formats ...schematype.Format) bool {
	f, _ := schema["format"].(string)
	for _, candidate := range formats {
		if schematype.Format(f) == candidate {
			return true
		}
	}
	return false
}

type textareaKind struct{ stringBase }

func (textareaKind) ID() string  { return "textarea" }
func (textareaKind) Ref() string { return "textarea" }

func (textareaKind) Plan(map[string]any) *Candidate {
	return &Candidate{
		FieldTypeProp: expression.FieldTypeProp{Type: "string_long", Prop: "value"},
		FieldWidget:   "string_textarea",
	}
}

type linkKind struct{ stringBase }

func (linkKind) ID() string  { return "link" }
func (linkKind) Ref() string { return "link" }

func (linkKind) Plan(map[string]any) *Candidate {
	return &Candidate{
		FieldTypeProp:    expression.FieldTypeProp{Type: "link", Prop: "uri"},
		FieldWidget:      "link_default",
		InstanceSettings: map[string]any{"title": 0},
	}
}

type dateTimeKind struct{ stringBase }

func (dateTimeKind) ID() string { return "datetime" }

func (dateTimeKind) Applies(schema map[string]any) bool {
	return plainString(schema) && hasFormat(schema, schematype.FormatDateTime, schematype.FormatDate)
}

func (dateTimeKind) Plan(schema map[string]any) *Candidate {
	datetimeType := "datetime"
	if hasFormat(schema, schematype.FormatDate) {
		datetimeType = "date"
	}
	return &Candidate{
		FieldTypeProp:   expression.FieldTypeProp{Type: "datetime", Prop: "value"},
		FieldWidget:     "datetime_default",
		StorageSettings: map[string]any{"datetime_type": datetimeType},
	}
}

type emailKind struct{ stringBase }

func (emailKind) ID() string { return "email" }

func (emailKind) Applies(schema map[string]any) bool {
	return plainString(schema) && hasFormat(schema, schematype.FormatEmail, schematype.FormatIDNEmail)
}

func (emailKind) Plan(map[string]any) *Candidate {
	return &Candidate{
		FieldTypeProp: expression.FieldTypeProp{Type: "email", Prop: "value"},
		FieldWidget:   "email_default",
	}
}

type uriKind struct{ stringBase }

func (uriKind) ID() string { return "uri" }

func (uriKind) Applies(schema map[string]any) bool {
	return plainString(schema) && hasFormat(schema,
		schematype.FormatURI, schematype.FormatURIReference,
		schematype.FormatIRI, schematype.FormatIRIReference)
}

func (uriKind) Plan(map[string]any) *Candidate {
	return &Candidate{
		FieldTypeProp: expression.FieldTypeProp{Type: "uri", Prop: "value"},
		FieldWidget:   "uri",
	}
}

// stringKind is the fallback for every string without a $ref.
type stringKind struct{ stringBase }

func (stringKind) ID() string { return "string" }

func (stringKind) Plan(schema map[string]any) *Candidate {
	if enum, ok := enumValues(schema); ok {
		return &Candidate{
			FieldTypeProp:   expression.FieldTypeProp{Type: "list_string", Prop: "value"},
			FieldWidget:     "options_select",
			StorageSettings: map[string]any{"allowed_values": allowedValues(enum)},
		}
	}
	if _, ok := schema["pattern"]; ok {
		return nil
	}
	if _, ok := schema["format"]; ok {
		return nil
	}
	c := &Candidate{
		FieldTypeProp: expression.FieldTypeProp{Type: "string", Prop: "value"},
		FieldWidget:   "string_textfield",
	}
	if max, ok := schema["maxLength"]; ok {
		c.StorageSettings = map[string]any{"max_length": cast.ToInt(max)}
	}
	return c
}

// numbers

type numericKind struct {
	base
	typ       schematype.Type
	fieldType string
	listType  string
}

func (n numericKind) ID() string            { return string(n.typ) }
func (n numericKind) Type() schematype.Type { return n.typ }

func (n numericKind) Plan(schema map[string]any) *Candidate {
	if enum, ok := enumValues(schema); ok {
		return &Candidate{
			FieldTypeProp:   expression.FieldTypeProp{Type: n.listType, Prop: "value"},
			FieldWidget:     "options_select",
			StorageSettings: map[string]any{"allowed_values": allowedValues(enum)},
		}
	}
	c := &Candidate{
		FieldTypeProp: expression.FieldTypeProp{Type: n.fieldType, Prop: "value"},
		FieldWidget:   "number",
	}
	min, max := n.bounds(schema)
	if min != nil || max != nil {
		c.InstanceSettings = map[string]any{}
		if min != nil {
			c.InstanceSettings["min"] = min
		}
		if max != nil {
			c.InstanceSettings["max"] = max
		}
	}
	return c
}

// bounds folds exclusive bounds into inclusive ones. Both the numeric
// (2019-09+) and the boolean (draft 4) exclusive keywords are understood.
func (n numericKind) bounds(schema map[string]any) (min, max any) {
	step := func(v any, dir int) any {
		if n.typ == schematype.Integer {
			return cast.ToInt(v) + dir*integerStep
		}
		return cast.ToFloat64(v) + float64(dir)*numberStep
	}
	exact := func(v any) any {
		if n.typ == schematype.Integer {
			return cast.ToInt(v)
		}
		return cast.ToFloat64(v)
	}

	if v, ok := schema["minimum"]; ok {
		if b, _ := schema["exclusiveMinimum"].(bool); b {
			min = step(v, 1)
		} else {
			min = exact(v)
		}
	}
	if v, ok := schema["exclusiveMinimum"]; ok {
		if _, isBool := v.(bool); !isBool {
			min = step(v, 1)
		}
	}
	if v, ok := schema["maximum"]; ok {
		if b, _ := schema["exclusiveMaximum"].(bool); b {
			max = step(v, -1)
		} else {
			max = exact(v)
		}
	}
	if v, ok := schema["exclusiveMaximum"]; ok {
		if _, isBool := v.(bool); !isBool {
			max = step(v, -1)
		}
	}
	return min, max
}

func (n numericKind) Validate(_ *Kinds, schema map[string]any, value any, path []string) error {
	f, ok := numeric(value)
	if !ok || (n.typ == schematype.Integer && f != math.Trunc(f)) {
		return typeError(path, n.typ, value)
	}
	if err := checkEnum(schema, value, path); err != nil {
		return err
	}
	if v, ok := schema["minimum"]; ok && f < cast.ToFloat64(v) {
		return &ValueError{Path: path, Message: fmt.Sprintf("must be greater than or equal to %v", v)}
	}
	if v, ok := schema["maximum"]; ok && f > cast.ToFloat64(v) {
		return &ValueError{Path: path, Message: fmt.Sprintf("must be less than or equal to %v", v)}
	}
	if v, ok := schema["exclusiveMinimum"]; ok {
		bound, strict := exclusiveBound(schema, v, "minimum")
		if strict && f <= bound {
			return &ValueError{Path: path, Message: fmt.Sprintf("must be greater than %v", bound)}
		}
	}
	if v, ok := schema["exclusiveMaximum"]; ok {
		bound, strict := exclusiveBound(schema, v, "maximum")
		if strict && f >= bound {
			return &ValueError{Path: path, Message: fmt.Sprintf("must be less than %v", bound)}
		}
	}
	if v, ok := schema["multipleOf"]; ok {
		m := cast.ToFloat64(v)
		if m > 0 {
			q := f / m
			if math.Abs(q-math.Round(q)) > 1e-9 {
				return &ValueError{Path: path, Message: fmt.Sprintf("must be a multiple of %v", v)}
			}
		}
	}
	return nil
}

func exclusiveBound(schema map[string]any, v any, inclusiveKey string) (float64, bool) {
	if b, isBool := v.(bool); isBool {
		bound, ok := schema[inclusiveKey]
		return cast.ToFloat64(bound), b && ok
	}
	return cast.ToFloat64(v), true
}

func (n numericKind) Massage(_ *Kinds, _ map[string]any, value any) (any, error) {
	if n.typ == schematype.Integer {
		return cast.ToIntE(value)
	}
	return cast.ToFloat64E(value)
}

type integerKind struct{ numericKind }

func newIntegerKind() integerKind {
	return integerKind{numericKind{typ: schematype.Integer, fieldType: "integer", listType: "list_integer"}}
}

type numberKind struct{ numericKind }

func newNumberKind() numberKind {
	return numberKind{numericKind{typ: schematype.Number, fieldType: "float", listType: "list_float"}}
}

// objects

type objectBase struct{ base }

func (objectBase) Type() schematype.Type { return schematype.Object }

func (objectBase) Validate(k *Kinds, schema map[string]any, value any, path []string) error {
	obj, ok := asObject(value)
	if !ok {
		return typeError(path, schematype.Object, value)
	}
	for _, name := range cast.ToStringSlice(schema["required"]) {
		if v, ok := obj[name]; !ok || v == nil {
			return &ValueError{Path: append(path, name), Message: "is required"}
		}
	}
	props, _ := schema["properties"].(map[string]any)
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sub, ok := props[name].(map[string]any)
		if !ok {
			if extra, _ := schema["additionalProperties"].(bool); schema["additionalProperties"] != nil && !extra {
				return &ValueError{Path: append(path, name), Message: "is not an allowed property"}
			}
			continue
		}
		if obj[name] == nil {
			continue
		}
		if err := k.validate(sub, obj[name], append(append([]string{}, path...), name)); err != nil {
			return err
		}
	}
	return nil
}

func (objectBase) Massage(k *Kinds, schema map[string]any, value any) (any, error) {
	obj, ok := asObject(value)
	if !ok {
		return nil, fmt.Errorf("unable to cast %#v of type %T to object", value, value)
	}
	props, _ := schema["properties"].(map[string]any)
	out := make(map[string]any, len(obj))
	for name, v := range obj {
		sub, ok := props[name].(map[string]any)
		if !ok {
			out[name] = v
			continue
		}
		massaged, err := k.Massage(sub, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = massaged
	}
	return out, nil
}

// imageKind stores images in an image field, reading the URL through the
// referenced file entity.
type imageKind struct{ objectBase }

func (imageKind) ID() string  { return "image" }
func (imageKind) Ref() string { return "image" }

func (imageKind) Plan(map[string]any) *Candidate {
	return &Candidate{
		FieldTypeProp: expression.FieldTypeObjectProps{Type: "image", Props: []expression.ObjectProp[expression.FieldTypeExpression]{
			{Name: "src", Expr: expression.ReferenceFieldTypeProp{
				Referencer: expression.FieldTypeProp{Type: "image", Prop: "entity"},
				Referenced: expression.FieldProp{EntityType: fileEntity, Field: "uri", Prop: "url"},
			}},
			{Name: "alt", Expr: expression.FieldTypeProp{Type: "image", Prop: "alt"}},
			{Name: "width", Expr: expression.FieldTypeProp{Type: "image", Prop: "width"}},
			{Name: "height", Expr: expression.FieldTypeProp{Type: "image", Prop: "height"}},
		}},
		FieldWidget: "image_image",
	}
}

type objectKind struct{ objectBase }

func (objectKind) ID() string { return "object" }

// arrays

type arrayKind struct{ base }

func (arrayKind) ID() string            { return "array" }
func (arrayKind) Type() schematype.Type { return schematype.Array }

func (arrayKind) Validate(k *Kinds, schema map[string]any, value any, path []string) error {
	items, err := cast.ToSliceE(value)
	if err != nil {
		return typeError(path, schematype.Array, value)
	}
	if v, ok := schema["minItems"]; ok && len(items) < cast.ToInt(v) {
		return &ValueError{Path: path, Message: fmt.Sprintf("must contain at least %d items", cast.ToInt(v))}
	}
	if v, ok := schema["maxItems"]; ok && len(items) > cast.ToInt(v) {
		return &ValueError{Path: path, Message: fmt.Sprintf("must contain at most %d items", cast.ToInt(v))}
	}
	sub, ok := schema["items"].(map[string]any)
	if !ok {
		return nil
	}
	for i, item := range items {
		if err := k.validate(sub, item, append(append([]string{}, path...), fmt.Sprint(i))); err != nil {
			return err
		}
	}
	return nil
}

func (arrayKind) Massage(k *Kinds, schema map[string]any, value any) (any, error) {
	items, err := cast.ToSliceE(value)
	if err != nil {
		return nil, err
	}
	sub, ok := schema["items"].(map[string]any)
	if !ok {
		return items, nil
	}
	out := make([]any, len(items))
	for i, item := range items {
		if out[i], err = k.Massage(sub, item); err != nil {
			return nil, fmt.Errorf("%d: %w", i, err)
		}
	}
	return out, nil
}

// helpers

func typeError(path []string, want schematype.Type, value any) error {
	return &ValueError{Path: path, Message: fmt.Sprintf("must be of type %s, got %T", want, value)}
}

func checkEnum(schema map[string]any, value any, path []string) error {
	enum, ok := enumValues(schema)
	if !ok {
		return nil
	}
	if !shapematch.NewChoice(enum).Check(value) {
		return &ValueError{Path: path, Message: fmt.Sprintf("must be one of %v", enum)}
	}
	return nil
}

func enumValues(schema map[string]any) ([]any, bool) {
	return schematype.EnumValues(schema)
}

func allowedValues(enum []any) []any {
	out := make([]any, len(enum))
	for i, v := range enum {
		out[i] = map[string]any{"value": v, "label": cast.ToString(v)}
	}
	return out
}

func numeric(value any) (float64, bool) {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return cast.ToFloat64(value), true
	}
	return 0, false
}

func asObject(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case interface{ Map() map[string]any }:
		return v.Map(), true
	}
	return nil, false
}
