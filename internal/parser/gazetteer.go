package parser

import "strings"

// Gazetteer is an ordered list of known location names.
// Entries that contain other entries must come first.
type Gazetteer []string

// DefaultGazetteer lists the Denver recreation centers that appear in the
// GroupExPro schedule.
var DefaultGazetteer = Gazetteer{
	"Carla Madison",
	"Central Park",
	"Glenarm",
	"Rude",
	"Athmar",
	"Aztlan",
	"Barnum",
	"Berkeley",
	"Harvey Park",
	"Highland",
	"Johnson",
	"La Alma",
	"La Familia",
	"Martin Luther King Jr.",
	"Montbello",
	"Montclair",
	"Scheitler",
	"Southwest",
	"Swansea",
	"Washington Park",
	"Ashland",
	"Green Valley Ranch",
	"Hiawatha Davis Jr.",
	"St. Charles",
	"Twentieth Street",
	"City Park",
	"College View",
	"Cook Park",
	"Eisenhower",
	"Harvard Gulch",
	"Platt Park",
	"Ruby Hill Park",
	"Sloan's Lake",
	"5090 Broadway",
}

// Match returns the first entry, in gazetteer order, contained in line
func (g Gazetteer) Match(line string) (string, bool) {
	for _, name := range g {
		if name != "" && strings.Contains(line, name) {
			return name, true
		}
	}
	return "", false
}

// IsLocation reports whether line is exactly a known location name
func (g Gazetteer) IsLocation(line string) bool {
	line = strings.TrimSpace(line)
	for _, name := range g {
		if line == name {
			return true
		}
	}
	return false
}
