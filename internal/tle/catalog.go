package tle

import "strings"

// Satellite names a tracked spacecraft.
type Satellite struct {
	Name    string
	NoradID int
}

// Catalog is the set of satellites the service tracks. Large, low-flying
// spacecraft are the only ones whose disc crossings are observable.
var Catalog = []Satellite{
	{Name: "ISS (ZARYA)", NoradID: 25544},
	{Name: "TIANGONG", NoradID: 48274},
	{Name: "HST", NoradID: 20580},
}

// ByName resolves a user-supplied satellite name, case-insensitively and
// including common aliases.
func ByName(name string) (Satellite, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "iss", "iss (zarya)", "zarya":
		return Catalog[0], true
	case "tiangong", "css":
		return Catalog[1], true
	case "hst", "hubble":
		return Catalog[2], true
	}
	return Satellite{}, false
}

// ByNoradID resolves a catalog number.
func ByNoradID(id int) (Satellite, bool) {
	for _, s := range Catalog {
		if s.NoradID == id {
			return s, true
		}
	}
	return Satellite{}, false
}
