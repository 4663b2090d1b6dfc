package entities

// AccessLevel is an ordered permission strength. A grant or policy at a
// higher level satisfies a request for any lower level.
type AccessLevel string

const (
	AccessReadOnly  AccessLevel = "read_only"
	AccessReadWrite AccessLevel = "read_write"
)

var accessLevelRank = map[AccessLevel]int{
	AccessReadOnly:  1,
	AccessReadWrite: 2,
}

// IsValid reports whether the level is a known enum member.
func (l AccessLevel) IsValid() bool {
	_, ok := accessLevelRank[l]
	return ok
}

// Satisfies reports whether a grant/policy at level l covers a request
// for required.
func (l AccessLevel) Satisfies(required AccessLevel) bool {
	return accessLevelRank[l] >= accessLevelRank[required]
}
