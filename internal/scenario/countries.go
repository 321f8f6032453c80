package scenario

// Members is the canonical enumeration of the thirteen Eastern Africa Power
// Pool member states, as ISO 3166-1 alpha-2 codes. A scenario may model any
// subset of these; it may not reference a country outside the pool.
var Members = []string{
	"BI", // Burundi
	"CD", // DR Congo
	"DJ", // Djibouti
	"EG", // Egypt
	"ET", // Ethiopia
	"KE", // Kenya
	"LY", // Libya
	"RW", // Rwanda
	"SD", // Sudan
	"SO", // Somalia
	"SS", // South Sudan
	"TZ", // Tanzania
	"UG", // Uganda
}

// IsMember reports whether code is one of the pool's member states.
func IsMember(code string) bool {
	for _, m := range Members {
		if m == code {
			return true
		}
	}
	return false
}
