package envelope

import "strings"

type Format string

const (
	FormatDirect Format = "direct"
	FormatBatch  Format = "batch"
	FormatLegacy Format = "legacy"
)

// Formats returns the negotiation order.
func Formats() []Format {
	return []Format{FormatDirect, FormatBatch, FormatLegacy}
}

func (f Format) Valid() bool {
	switch f {
	case FormatDirect, FormatBatch, FormatLegacy:
		return true
	default:
		return false
	}
}

// Label is the short name used in logs: A, B or C.
func (f Format) Label() string {
	switch f {
	case FormatDirect:
		return "A"
	case FormatBatch:
		return "B"
	case FormatLegacy:
		return "C"
	default:
		return strings.ToUpper(string(f))
	}
}

func (f Format) String() string {
	return string(f)
}
