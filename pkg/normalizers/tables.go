package normalizers

import "maps"

// Tables are the lookup tables consumed by the Normalizer.
// A nil table falls back to its default through WithDefaults.
type Tables struct {
	// Nicknames maps a nickname token to its canonical given name.
	Nicknames map[string]string `json:"nicknames,omitempty" yaml:"nicknames,omitempty"`
	// NameSuffixes are generational and professional tokens dropped from names.
	NameSuffixes []string `json:"name_suffixes,omitempty" yaml:"name_suffixes,omitempty"`
	// StreetSuffixes maps an abbreviation to its full street-type word.
	StreetSuffixes map[string]string `json:"street_suffixes,omitempty" yaml:"street_suffixes,omitempty"`
	Directionals   map[string]string `json:"directionals,omitempty" yaml:"directionals,omitempty"`
	// UnitMarkers start the unit part of a street line.
	UnitMarkers []string `json:"unit_markers,omitempty" yaml:"unit_markers,omitempty"`
	// States maps state names and codes to the two letter code.
	States map[string]string `json:"states,omitempty" yaml:"states,omitempty"`
}

// WithDefaults returns a copy of t with every unset table replaced by its default.
func (t Tables) WithDefaults() Tables {
	d := DefaultTables()
	if t.Nicknames == nil {
		t.Nicknames = d.Nicknames
	}
	if t.NameSuffixes == nil {
		t.NameSuffixes = d.NameSuffixes
	}
	if t.StreetSuffixes == nil {
		t.StreetSuffixes = d.StreetSuffixes
	}
	if t.Directionals == nil {
		t.Directionals = d.Directionals
	}
	if t.UnitMarkers == nil {
		t.UnitMarkers = d.UnitMarkers
	}
	if t.States == nil {
		t.States = d.States
	}
	return t
}

// DefaultTables returns fresh copies of the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Nicknames:      maps.Clone(defaultNicknames),
		NameSuffixes:   []string{"jr", "sr", "ii", "iii", "iv", "phd", "md", "dds", "esq"},
		StreetSuffixes: maps.Clone(defaultStreetSuffixes),
		Directionals:   maps.Clone(defaultDirectionals),
		UnitMarkers:    []string{"apt", "apartment", "unit", "suite", "ste", "#", "rm", "room", "fl", "floor", "bldg"},
		States:         maps.Clone(defaultStates),
	}
}

var defaultNicknames = map[string]string{
	"bob": "robert", "rob": "robert", "bobby": "robert", "robbie": "robert",
	"jim": "james", "jimmy": "james", "jamie": "james",
	"joe": "joseph", "joey": "joseph",
	"mike": "michael", "mikey": "michael",
	"tom": "thomas", "tommy": "thomas",
	"dick": "richard", "rick": "richard", "rich": "richard", "ricky": "richard",
	"bill": "william", "billy": "william", "will": "william", "willy": "william",
	"charlie": "charles", "chuck": "charles",
	"ed": "edward", "eddie": "edward", "ted": "edward",
	"fred": "frederick", "freddie": "frederick",
	"georgie": "george",
	"hank":    "henry",
	"jack":    "john", "johnny": "john",
	"larry": "lawrence",
	"leo":   "leonard", "len": "leonard", "lenny": "leonard",
	"matt": "matthew", "matty": "matthew",
	"nick": "nicholas", "nicky": "nicholas",
	"pete": "peter",
	"sam":  "samuel", "sammy": "samuel",
	"steve": "steven",
	"tony":  "anthony",
	"vince": "vincent",
	"walt":  "walter",
	"zack":  "zachary", "zach": "zachary",
	"liz": "elizabeth", "beth": "elizabeth", "betty": "elizabeth",
	"kate": "katherine", "katie": "katherine", "kathy": "katherine",
	"sue": "susan", "susie": "susan",
	"jenny": "jennifer", "jen": "jennifer",
	"patty": "patricia", "pat": "patricia",
	"peggy": "margaret", "maggie": "margaret", "meg": "margaret",
	"dave": "david", "danny": "daniel", "dan": "daniel",
	"andy": "andrew", "drew": "andrew",
	"chris": "christopher", "greg": "gregory", "ken": "kenneth",
	"alex": "alexander", "ben": "benjamin", "tim": "timothy",
}

var defaultStreetSuffixes = map[string]string{
	"st":   "street",
	"str":  "street",
	"ave":  "avenue",
	"av":   "avenue",
	"blvd": "boulevard",
	"rd":   "road",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"cir":  "circle",
	"pl":   "place",
	"pkwy": "parkway",
	"sq":   "square",
	"ter":  "terrace",
	"hwy":  "highway",
	"trl":  "trail",
}

var defaultDirectionals = map[string]string{
	"n":  "north",
	"s":  "south",
	"e":  "east",
	"w":  "west",
	"ne": "northeast",
	"nw": "northwest",
	"se": "southeast",
	"sw": "southwest",
}

var defaultStates = map[string]string{
	"al": "AL", "alabama": "AL",
	"ak": "AK", "alaska": "AK",
	"az": "AZ", "arizona": "AZ",
	"ar": "AR", "arkansas": "AR",
	"ca": "CA", "california": "CA",
	"co": "CO", "colorado": "CO",
	"ct": "CT", "connecticut": "CT",
	"de": "DE", "delaware": "DE",
	"fl": "FL", "florida": "FL",
	"ga": "GA", "georgia": "GA",
	"hi": "HI", "hawaii": "HI",
	"id": "ID", "idaho": "ID",
	"il": "IL", "illinois": "IL",
	"in": "IN", "indiana": "IN",
	"ia": "IA", "iowa": "IA",
	"ks": "KS", "kansas": "KS",
	"ky": "KY", "kentucky": "KY",
	"la": "LA", "louisiana": "LA",
	"me": "ME", "maine": "ME",
	"md": "MD", "maryland": "MD",
	"ma": "MA", "massachusetts": "MA",
	"mi": "MI", "michigan": "MI",
	"mn": "MN", "minnesota": "MN",
	"ms": "MS", "mississippi": "MS",
	"mo": "MO", "missouri": "MO",
	"mt": "MT", "montana": "MT",
	"ne": "NE", "nebraska": "NE",
	"nv": "NV", "nevada": "NV",
	"nh": "NH", "new hampshire": "NH",
	"nj": "NJ", "new jersey": "NJ",
	"nm": "NM", "new mexico": "NM",
	"ny": "NY", "new york": "NY",
	"nc": "NC", "north carolina": "NC",
	"nd": "ND", "north dakota": "ND",
	"oh": "OH", "ohio": "OH",
	"ok": "OK", "oklahoma": "OK",
	"or": "OR", "oregon": "OR",
	"pa": "PA", "pennsylvania": "PA",
	"ri": "RI", "rhode island": "RI",
	"sc": "SC", "south carolina": "SC",
	"sd": "SD", "south dakota": "SD",
	"tn": "TN", "tennessee": "TN",
	"tx": "TX", "texas": "TX",
	"ut": "UT", "utah": "UT",
	"vt": "VT", "vermont": "VT",
	"va": "VA", "virginia": "VA",
	"wa": "WA", "washington": "WA",
	"wv": "WV", "west virginia": "WV",
	"wi": "WI", "wisconsin": "WI",
	"wy": "WY", "wyoming": "WY",
	"dc": "DC", "district of columbia": "DC",
}
