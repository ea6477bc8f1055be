package directory

import "sort"

// Issue is a single active technical issue reported for a device.
type Issue struct {
	Name string `json:"name"`
}

// Snapshot is an immutable bundle of directory maps built from one refresh
// cycle. All maps are derived from the same device-listing response; a
// snapshot is never patched in place, only replaced wholesale.
type Snapshot struct {
	regions    map[string][]string
	deviceIDs  map[string]string
	issues     map[string][]Issue
	withIssues map[string]struct{}
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		regions:    make(map[string][]string),
		deviceIDs:  make(map[string]string),
		issues:     make(map[string][]Issue),
		withIssues: make(map[string]struct{}),
	}
}

// Regions returns the region names in stable sorted order, for menu building.
func (s *Snapshot) Regions() []string {
	names := make([]string, 0, len(s.regions))
	for name := range s.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Devices returns the device names of a region in listing order.
func (s *Snapshot) Devices(region string) []string {
	return s.regions[region]
}

// DeviceID resolves a display name to the remote device id.
func (s *Snapshot) DeviceID(name string) (string, bool) {
	id, ok := s.deviceIDs[name]
	return id, ok
}

// HasDevice reports whether name appears in any region of this snapshot.
func (s *Snapshot) HasDevice(name string) bool {
	_, ok := s.deviceIDs[name]
	if ok {
		return true
	}
	// A malformed record may carry a name but no id; it is still listed.
	for _, devices := range s.regions {
		for _, d := range devices {
			if d == name {
				return true
			}
		}
	}
	return false
}

// HasIssues reports whether the device currently has active issues.
func (s *Snapshot) HasIssues(name string) bool {
	_, ok := s.withIssues[name]
	return ok
}

// Issues returns the active issues recorded for a device, verbatim from the
// listing response.
func (s *Snapshot) Issues(name string) []Issue {
	return s.issues[name]
}

// DeviceCount returns the number of devices with a resolved id.
func (s *Snapshot) DeviceCount() int {
	return len(s.deviceIDs)
}

// IssueCount returns the number of devices flagged with issues.
func (s *Snapshot) IssueCount() int {
	return len(s.withIssues)
}
