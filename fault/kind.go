package fault

import "fmt"

// Kind classifies an error by its origin.
type Kind int

const (
	// KindGeneric is the fallback classification for unrecognized errors.
	KindGeneric Kind = iota
	// KindNetwork covers connectivity, timeout, and transport failures.
	KindNetwork
	// KindBroker covers order placement and broker/exchange API failures.
	KindBroker
	// KindStrategy covers trading strategy evaluation failures.
	KindStrategy
	// KindConfiguration covers invalid or missing configuration.
	KindConfiguration
	// KindValidation covers input and state validation failures.
	KindValidation
	// KindDataFeed covers market data availability and quality failures.
	KindDataFeed
	// KindRecovery covers failures raised while recovering from another error.
	KindRecovery
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindBroker:
		return "broker"
	case KindStrategy:
		return "strategy"
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindDataFeed:
		return "data_feed"
	case KindRecovery:
		return "recovery"
	case KindGeneric:
		return "generic"
	default:
		return "generic"
	}
}

// Code returns the machine-readable error code for the kind.
func (k Kind) Code() string {
	switch k {
	case KindNetwork:
		return "ERR_NETWORK"
	case KindBroker:
		return "ERR_BROKER"
	case KindStrategy:
		return "ERR_STRATEGY"
	case KindConfiguration:
		return "ERR_CONFIGURATION"
	case KindValidation:
		return "ERR_VALIDATION"
	case KindDataFeed:
		return "ERR_DATA_FEED"
	case KindRecovery:
		return "ERR_RECOVERY"
	case KindGeneric:
		return "ERR_GENERIC"
	default:
		return "ERR_GENERIC"
	}
}

// ParseKind parses a kind name as produced by String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "network":
		return KindNetwork, nil
	case "broker":
		return KindBroker, nil
	case "strategy":
		return KindStrategy, nil
	case "configuration":
		return KindConfiguration, nil
	case "validation":
		return KindValidation, nil
	case "data_feed":
		return KindDataFeed, nil
	case "recovery":
		return KindRecovery, nil
	case "generic":
		return KindGeneric, nil
	default:
		return KindGeneric, fmt.Errorf("unknown error kind: %q", s)
	}
}
