package model

// OperationalState is the access gate's persisted configuration.  Owner
// is the only identity allowed to flip IsOperational or edit the list of
// authorized callers.  Founder is the airline seeded at genesis.
type OperationalState struct {
	IsOperational bool    `json:"is_operational"`
	Owner         Address `json:"owner"`
	Founder       Address `json:"founder"`
}
