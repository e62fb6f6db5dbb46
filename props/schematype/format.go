package schematype

import (
	"fmt"

	"github.com/jacerider/neo-alchemist/props/shapematch"
)

// Format is a JSON-Schema string format.
type Format string

const (
	FormatDateTime            Format = "date-time"
	FormatTime                Format = "time"
	FormatDate                Format = "date"
	FormatDuration            Format = "duration"
	FormatEmail               Format = "email"
	FormatIDNEmail            Format = "idn-email"
	FormatHostname            Format = "hostname"
	FormatIDNHostname         Format = "idn-hostname"
	FormatIPv4                Format = "ipv4"
	FormatIPv6                Format = "ipv6"
	FormatUUID                Format = "uuid"
	FormatURI                 Format = "uri"
	FormatURIReference        Format = "uri-reference"
	FormatIRI                 Format = "iri"
	FormatIRIReference        Format = "iri-reference"
	FormatURITemplate         Format = "uri-template"
	FormatJSONPointer         Format = "json-pointer"
	FormatRelativeJSONPointer Format = "relative-json-pointer"
	FormatRegex               Format = "regex"
)

// ParseFormat rejects formats JSON Schema does not define.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	switch f {
	case FormatDateTime, FormatTime, FormatDate, FormatDuration,
		FormatEmail, FormatIDNEmail, FormatHostname, FormatIDNHostname,
		FormatIPv4, FormatIPv6, FormatUUID,
		FormatURI, FormatURIReference, FormatIRI, FormatIRIReference,
		FormatURITemplate, FormatJSONPointer, FormatRelativeJSONPointer, FormatRegex:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Requirement maps the format to exactly one constraint. Formats without a
// mapping produce the NotYetSupported sentinel.
func (f Format) Requirement() shapematch.Constraint {
	switch f {
	case FormatDateTime, FormatDate:
		return shapematch.Constraint{Name: shapematch.PrimitiveType, Interface: shapematch.DateTimeInterface}
	case FormatEmail, FormatIDNEmail:
		return shapematch.Constraint{Name: shapematch.Email}
	case FormatHostname, FormatIDNHostname:
		return shapematch.Constraint{Name: shapematch.Hostname}
	case FormatIPv4:
		return shapematch.Constraint{Name: shapematch.IP, Options: map[string]any{"version": "4"}}
	case FormatIPv6:
		return shapematch.Constraint{Name: shapematch.IP, Options: map[string]any{"version": "6"}}
	case FormatUUID:
		return shapematch.Constraint{Name: shapematch.UUID}
	case FormatURI, FormatURIReference, FormatIRI, FormatIRIReference:
		return shapematch.Constraint{Name: shapematch.PrimitiveType, Interface: shapematch.URIInterface}
	default:
		// time, duration, uri-template, json-pointer, relative-json-pointer, regex
		return shapematch.NewNotYetSupported()
	}
}
