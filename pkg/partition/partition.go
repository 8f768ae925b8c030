// Package partition defines the fixed key space that acquisition enumerates.
//
// Each key is an INSEE department code. Metropolitan departments are two
// digits, Corsica uses the lettered pair 2A/2B, and overseas departments use
// three digits. The set and its order are configuration, not derived data.
package partition

// Key identifies one enumeration unit of the remote source.
type Key string

// String returns the raw department code.
func (k Key) String() string {
	return string(k)
}

// departements is the enumeration order used by every acquisition run.
var departements = []Key{
	"01", "02", "03", "04", "05", "06", "07", "08", "09", "10",
	"11", "12", "13", "14", "15", "16", "17", "18", "19", "2A",
	"2B", "21", "22", "23", "24", "25", "26", "27", "28", "29",
	"30", "31", "32", "33", "34", "35", "36", "37", "38", "39",
	"40", "41", "42", "43", "44", "45", "46", "47", "48", "49",
	"50", "51", "52", "53", "54", "55", "56", "57", "58", "59",
	"60", "61", "62", "63", "64", "65", "66", "67", "68", "69",
	"70", "71", "72", "73", "74", "75", "76", "77", "78", "79",
	"80", "81", "82", "83", "84", "85", "86", "87", "88", "89",
	"90", "91", "92", "93", "94", "95", "971", "972", "973", "974", "976",
}

// Departements returns the department codes in enumeration order.
// The returned slice is a copy; callers may modify it freely.
func Departements() []Key {
	keys := make([]Key, len(departements))
	copy(keys, departements)
	return keys
}

// Parse converts raw codes into keys, preserving order.
func Parse(codes []string) []Key {
	keys := make([]Key, 0, len(codes))
	for _, c := range codes {
		keys = append(keys, Key(c))
	}
	return keys
}
