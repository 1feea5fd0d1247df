package locator

import "github.com/sells-group/locations-cli/internal/resilience"

// DefaultRadius is the Nearby Search maximum radius in metres.
const DefaultRadius = 50000

// DefaultIrrelevantTypes lists place categories that do not represent a
// company office or branch. A candidate tagged with any of them is dropped.
// The list is curated, not exhaustive.
var DefaultIrrelevantTypes = []string{
	"accounting", "amusement_park", "aquarium", "art_gallery", "atm",
	"bakery", "bar", "beauty_salon", "book_store", "bowling_alley",
	"bus_station", "cafe", "campground", "car_repair", "car_wash",
	"casino", "cemetery", "church", "clothing_store", "convenience_store",
	"courthouse", "dentist", "department_store", "doctor", "electrician",
	"embassy", "finance", "fire_station", "florist", "food",
	"funeral_home", "furniture_store", "gas_station", "general_contractor", "gym",
	"hair_care", "hardware_store", "hindu_temple", "insurance_agency", "jewelry_store",
	"laundry", "lawyer", "library", "liquor_store", "local_government_office",
	"locksmith", "lodging", "meal_delivery", "meal_takeaway", "mosque",
	"movie_rental", "movie_theater", "museum", "natural_feature", "neighborhood",
	"night_club", "painter", "park", "parking", "pet_store",
	"pharmacy", "physiotherapist", "plumber", "police", "political",
	"post_office", "real_estate_agency", "restaurant", "rv_park", "school",
	"shoe_store", "shopping_mall", "spa", "store", "supermarket",
	"synagogue", "taxi_stand", "transit_station", "travel_agency", "university",
	"zoo",
}

// NameMatcher decides whether a candidate place name refers to the
// searched company.
type NameMatcher interface {
	Match(target, candidate string) bool
}

// Options configures a Locator.
type Options struct {
	// Radius of each nearby search in metres. Zero means DefaultRadius.
	Radius  int
	OpenNow bool
	// Matcher defaults to a token set ratio matcher with threshold 80.
	Matcher NameMatcher
	// IrrelevantTypes defaults to DefaultIrrelevantTypes when nil.
	IrrelevantTypes []string
	// CityLimit caps how many cities are searched. Zero searches all.
	CityLimit int
	// Concurrency is the number of company/city searches in flight.
	Concurrency int
	// StopOnMismatch abandons the rest of a result batch at the first
	// candidate whose name does not match, instead of skipping it.
	StopOnMismatch bool
	// RateLimit caps Places requests per second. Zero means 10.
	RateLimit float64
	// Retry governs retries of transient Places failures. A zero
	// MaxAttempts uses resilience.DefaultRetryConfig.
	Retry resilience.RetryConfig
}
