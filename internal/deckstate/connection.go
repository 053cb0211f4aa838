package deckstate

// ConnectionChange reports a connection lifecycle transition from the
// protocol adapter, with whatever identity the adapter learned so far.
type ConnectionChange struct {
	Phase           ConnectionPhase `json:"phase"`
	Name            string          `json:"name,omitempty"`
	Address         string          `json:"address,omitempty"`
	SoftwareName    string          `json:"softwareName,omitempty"`
	SoftwareVersion string          `json:"softwareVersion,omitempty"`
}

// ApplyConnection records a connection transition.
//
// Entering PhaseDisconnected resets the whole tree before the phase is
// recorded, so nothing learned during the previous session survives.
// Unknown phases are ignored.
func (s *State) ApplyConnection(c ConnectionChange) bool {
	if !c.Phase.Valid() {
		return false
	}

	if c.Phase == PhaseDisconnected {
		s.Reset()
	}
	s.Device.Phase = c.Phase

	if c.Name != "" {
		s.Device.Name = c.Name
	}
	if c.Address != "" {
		s.Device.IP = c.Address
	}
	if c.SoftwareName != "" {
		s.Device.SoftwareName = c.SoftwareName
	}
	if c.SoftwareVersion != "" {
		s.Device.SoftwareVersion = c.SoftwareVersion
	}
	return true
}
