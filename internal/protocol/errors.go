package protocol

const (
	// Protocol/transport validation.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrVersion    = "E_VERSION"

	// Match routing/state.
	ErrUnknownUnit = "E_UNKNOWN_UNIT"
	ErrBadOrder    = "E_BAD_ORDER"
	ErrBusy        = "E_BUSY"
	ErrNotOwner    = "E_NOT_OWNER"
	ErrInternal    = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:  {},
	ErrVersion:     {},
	ErrUnknownUnit: {},
	ErrBadOrder:    {},
	ErrBusy:        {},
	ErrNotOwner:    {},
	ErrInternal:    {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
