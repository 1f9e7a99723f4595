package geo

// DefaultJurisdiction is used when no bounding box matches and as the
// initial jurisdiction of new identities.
const DefaultJurisdiction = "California"

type box struct {
	name           string
	minLat, maxLat float64
	minLon, maxLon float64
}

func (b box) contains(lat, lon float64) bool {
	return lat >= b.minLat && lat <= b.maxLat && lon >= b.minLon && lon <= b.maxLon
}

// Boxes may overlap; order decides, first match wins. Do not sort.
var boxes = []box{
	{"California", 32.5, 42, -124, -114},
	{"Florida", 25.8, 31, -87, -80},
	{"Texas", 25.8, 36.5, -106.6, -93.5},
	{"New York", 40.5, 45.0, -79.8, -71.8},
}

// DetectJurisdiction maps coordinates to a US state by coarse rectangles.
func DetectJurisdiction(lat, lon float64) string {
	for _, b := range boxes {
		if b.contains(lat, lon) {
			return b.name
		}
	}
	return DefaultJurisdiction
}
