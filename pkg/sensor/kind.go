// Package sensor defines the closed set of sensor kinds a process can be
// configured for.
package sensor

import (
	"fmt"
	"strings"
)

// Kind selects the grammar and hardware driver of a process instance.
type Kind uint8

const (
	// KindConductivity is an EZO-EC conductivity circuit.
	KindConductivity Kind = 1
	// KindPH is an EZO-pH circuit.
	KindPH Kind = 2
	// KindTemperature is an EZO-RTD temperature circuit.
	KindTemperature Kind = 3
)

// Kinds lists every supported kind in CLI order.
var Kinds = []Kind{KindConductivity, KindPH, KindTemperature}

// String returns the CLI name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConductivity:
		return "conductivity"
	case KindPH:
		return "ph"
	case KindTemperature:
		return "temperature"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// EnvPrefix returns the prefix used for environment variable fallbacks,
// e.g. "PH" for PH_REQ_URL.
func (k Kind) EnvPrefix() string {
	return strings.ToUpper(k.String())
}

// IsValid reports whether k is one of the supported kinds.
func (k Kind) IsValid() bool {
	return k >= KindConductivity && k <= KindTemperature
}

// ParseKind parses a CLI kind name (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conductivity", "ec":
		return KindConductivity, nil
	case "ph":
		return KindPH, nil
	case "temperature", "rtd":
		return KindTemperature, nil
	default:
		return 0, fmt.Errorf("unknown sensor kind: %q (use: conductivity, ph, temperature)", s)
	}
}
