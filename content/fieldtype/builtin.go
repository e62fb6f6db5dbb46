package fieldtype

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/props/shapematch"
)

// Builtin returns a catalog with every built-in field type.
func Builtin() *Catalog {
	return New(
		stringType(),
		stringLongType(),
		booleanType(),
		numericType("integer", "Number (integer)", content.DataTypeInteger),
		numericType("float", "Number (float)", content.DataTypeFloat),
		listType("list_string", "List (text)", content.DataTypeString),
		listType("list_integer", "List (integer)", content.DataTypeInteger),
		listType("list_float", "List (float)", content.DataTypeFloat),
		datetimeType(),
		timestampType(),
		emailType(),
		uriType(),
		linkType(),
		entityReferenceType(),
		fileType(),
		imageType(),
		fileURIType(),
	)
}

func prose() map[string]any {
	return map[string]any{"semantic": shapematch.SemanticProse}
}

func single(p content.PropertyDefinition) func(_, _ map[string]any) []content.PropertyDefinition {
	return func(_, _ map[string]any) []content.PropertyDefinition {
		return []content.PropertyDefinition{p}
	}
}

func stringType() *Definition {
	return &Definition{
		ID:             "string",
		Label:          "Text (plain)",
		MainProperty:   "value",
		DefaultWidget:  "string_textfield",
		DefaultStorage: map[string]any{"max_length": 255},
		Properties: func(storage, _ map[string]any) []content.PropertyDefinition {
			return []content.PropertyDefinition{{
				Name:     "value",
				DataType: content.DataTypeString,
				Constraints: map[string]map[string]any{
					shapematch.Length:          {"max": cast.ToInt(storage["max_length"])},
					shapematch.StringSemantics: prose(),
				},
			}}
		},
	}
}

func stringLongType() *Definition {
	return &Definition{
		ID:            "string_long",
		Label:         "Text (plain, long)",
		MainProperty:  "value",
		DefaultWidget: "string_textarea",
		Properties: single(content.PropertyDefinition{
			Name:        "value",
			DataType:    content.DataTypeString,
			Constraints: map[string]map[string]any{shapematch.StringSemantics: prose()},
		}),
	}
}

func booleanType() *Definition {
	return &Definition{
		ID:            "boolean",
		Label:         "Boolean",
		MainProperty:  "value",
		DefaultWidget: "boolean_checkbox",
		Properties:    single(content.PropertyDefinition{Name: "value", DataType: content.DataTypeBoolean}),
	}
}

func numericType(id, label string, dataType content.DataType) *Definition {
	return &Definition{
		ID:            id,
		Label:         label,
		MainProperty:  "value",
		DefaultWidget: "number",
		Properties: func(_, instance map[string]any) []content.PropertyDefinition {
			p := content.PropertyDefinition{Name: "value", DataType: dataType}
			bounds := map[string]any{}
			if min, ok := instance["min"]; ok && min != nil {
				bounds["min"] = min
			}
			if max, ok := instance["max"]; ok && max != nil {
				bounds["max"] = max
			}
			if len(bounds) > 0 {
				p.Constraints = map[string]map[string]any{shapematch.Range: bounds}
			}
			return []content.PropertyDefinition{p}
		},
	}
}

func listType(id, label string, dataType content.DataType) *Definition {
	return &Definition{
		ID:             id,
		Label:          label,
		MainProperty:   "value",
		DefaultWidget:  "options_select",
		DefaultStorage: map[string]any{"allowed_values": []any{}},
		Properties: func(storage, _ map[string]any) []content.PropertyDefinition {
			return []content.PropertyDefinition{{
				Name:        "value",
				DataType:    dataType,
				Constraints: map[string]map[string]any{shapematch.Choice: {"choices": AllowedValues(storage)}},
			}}
		},
	}
}

// AllowedValues extracts the values of an allowed_values storage setting,
// accepting both [{value, label}] lists and bare literal lists.
func AllowedValues(storage map[string]any) []any {
	var out []any
	switch list := storage["allowed_values"].(type) {
	case []map[string]any:
		for _, entry := range list {
			out = append(out, entry["value"])
		}
	case []any:
		for _, entry := range list {
			if m, ok := entry.(map[string]any); ok {
				out = append(out, m["value"])
				continue
			}
			out = append(out, entry)
		}
	}
	return out
}

func datetimeType() *Definition {
	return &Definition{
		ID:             "datetime",
		Label:          "Date",
		MainProperty:   "value",
		DefaultWidget:  "datetime_default",
		DefaultStorage: map[string]any{"datetime_type": "datetime"},
		Properties: single(content.PropertyDefinition{
			Name:        "value",
			DataType:    content.DataTypeDateTimeISO8601,
			Constraints: map[string]map[string]any{shapematch.PrimitiveType: {}},
			Interfaces:  []string{shapematch.DateTimeInterface},
		}),
	}
}

func timestampType() *Definition {
	return &Definition{
		ID:            "timestamp",
		Label:         "Timestamp",
		MainProperty:  "value",
		DefaultWidget: "datetime_timestamp",
		Properties:    single(content.PropertyDefinition{Name: "value", DataType: content.DataTypeTimestamp}),
	}
}

func emailType() *Definition {
	return &Definition{
		ID:            "email",
		Label:         "Email",
		MainProperty:  "value",
		DefaultWidget: "email_default",
		Properties: single(content.PropertyDefinition{
			Name:        "value",
			DataType:    content.DataTypeEmail,
			Constraints: map[string]map[string]any{shapematch.Email: {}},
		}),
	}
}

func uriProperty(name string, computed bool) content.PropertyDefinition {
	return content.PropertyDefinition{
		Name:        name,
		DataType:    content.DataTypeURI,
		Computed:    computed,
		Constraints: map[string]map[string]any{shapematch.PrimitiveType: {}},
		Interfaces:  []string{shapematch.URIInterface},
	}
}

func uriType() *Definition {
	return &Definition{
		ID:            "uri",
		Label:         "URI",
		MainProperty:  "value",
		DefaultWidget: "uri",
		Properties:    single(uriProperty("value", false)),
	}
}

func linkType() *Definition {
	return &Definition{
		ID:              "link",
		Label:           "Link",
		MainProperty:    "uri",
		DefaultWidget:   "link_default",
		DefaultInstance: map[string]any{"title": true},
		Properties: func(_, _ map[string]any) []content.PropertyDefinition {
			return []content.PropertyDefinition{
				uriProperty("uri", false),
				{Name: "title", DataType: content.DataTypeString},
				{Name: "options", DataType: content.DataTypeMap},
			}
		},
	}
}

func referenceProperties(extra ...content.PropertyDefinition) []content.PropertyDefinition {
	return append([]content.PropertyDefinition{
		{Name: "target_id", DataType: content.DataTypeInteger, Required: true},
		{Name: "entity", DataType: content.DataTypeEntityReference, Computed: true},
	}, extra...)
}

func entityReferenceType() *Definition {
	return &Definition{
		ID:             "entity_reference",
		Label:          "Entity reference",
		MainProperty:   "target_id",
		DefaultWidget:  "entity_reference_autocomplete",
		DefaultStorage: map[string]any{"target_type": "node"},
		Properties: func(_, _ map[string]any) []content.PropertyDefinition {
			return referenceProperties()
		},
	}
}

func fileType() *Definition {
	return &Definition{
		ID:             "file",
		Label:          "File",
		MainProperty:   "target_id",
		DefaultWidget:  "file_generic",
		DefaultStorage: map[string]any{"target_type": "file"},
		Properties: func(_, _ map[string]any) []content.PropertyDefinition {
			return referenceProperties(
				content.PropertyDefinition{Name: "display", DataType: content.DataTypeBoolean},
				content.PropertyDefinition{Name: "description", DataType: content.DataTypeString},
			)
		},
	}
}

func imageType() *Definition {
	return &Definition{
		ID:             "image",
		Label:          "Image",
		MainProperty:   "target_id",
		DefaultWidget:  "image_image",
		DefaultStorage: map[string]any{"target_type": "file"},
		Properties: func(_, _ map[string]any) []content.PropertyDefinition {
			return referenceProperties(
				content.PropertyDefinition{Name: "alt", DataType: content.DataTypeString},
				content.PropertyDefinition{Name: "title", DataType: content.DataTypeString},
				content.PropertyDefinition{Name: "width", DataType: content.DataTypeInteger},
				content.PropertyDefinition{Name: "height", DataType: content.DataTypeInteger},
			)
		},
	}
}

// PublicFilesPath is where public:// URIs are served from.
const PublicFilesPath = "/sites/default/files/"

func fileURIType() *Definition {
	return &Definition{
		ID:            "file_uri",
		Label:         "File URI",
		MainProperty:  "value",
		DefaultWidget: "file_uri",
		Properties: func(_, _ map[string]any) []content.PropertyDefinition {
			return []content.PropertyDefinition{
				uriProperty("value", false),
				uriProperty("url", true),
			}
		},
		Compute: func(item *Item, prop string) (any, error) {
			if prop != "url" {
				return nil, nil
			}
			uri := cast.ToString(item.values["value"])
			if rest, ok := strings.CutPrefix(uri, "public://"); ok {
				return PublicFilesPath + rest, nil
			}
			return uri, nil
		},
	}
}
