package game

import "encoding/json"

type HeroID string

const (
	HeroZeus         HeroID = "zeus"
	HeroHercules     HeroID = "hercules"
	HeroQuetzalcoatl HeroID = "quetzalcoatl"
)

type Hero struct {
	ID          HeroID `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Accent      string `json:"accent"`
}

var heroes = []Hero{
	{
		ID:          HeroZeus,
		Name:        "Zeus",
		Title:       "King of Olympus",
		Description: "Master of the skies. Zeus reveals astronomical alignments and divine connections between ancient sites.",
		Accent:      "#5AA7FF",
	},
	{
		ID:          HeroHercules,
		Name:        "Hercules",
		Title:       "The Original Hero",
		Description: "Legendary strongman. Hercules reveals how ancient peoples moved massive stones.",
		Accent:      "#FFB020",
	},
	{
		ID:          HeroQuetzalcoatl,
		Name:        "Quetzalcoatl",
		Title:       "Feathered Serpent God",
		Description: "Ancient astronomer-priest. Quetzalcoatl decodes astronomical calendars.",
		Accent:      "#20E3A2",
	},
}

type SiteType int

const (
	SiteUnknown SiteType = iota
	SiteTemple
	SitePyramid
	SiteMegalith
	SiteEarthwork
	SiteUnderwater
)

func (t SiteType) String() string {
	switch t {
	case SiteTemple:
		return "temple"
	case SitePyramid:
		return "pyramid"
	case SiteMegalith:
		return "megalith"
	case SiteEarthwork:
		return "earthwork"
	case SiteUnderwater:
		return "underwater"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes SiteType as a string.
func (t SiteType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON deserializes SiteType from a string.
func (t *SiteType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "temple":
		*t = SiteTemple
	case "pyramid":
		*t = SitePyramid
	case "megalith":
		*t = SiteMegalith
	case "earthwork":
		*t = SiteEarthwork
	case "underwater":
		*t = SiteUnderwater
	default:
		*t = SiteUnknown
	}
	return nil
}

// Site is a point of interest the player can walk into.
type Site struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Era         string   `json:"era"`
	Type        SiteType `json:"type"`
	Culture     string   `json:"culture"`
	Description string   `json:"description"`
	Mysteries   []string `json:"mysteries"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Position    Position `json:"position"`
}

// Catalog order is significant: it breaks ties when several sites are in range.
var sites = []Site{
	{
		ID:          "gobekli-tepe",
		Name:        "Göbekli Tepe",
		Era:         "9600 BCE",
		Type:        SiteTemple,
		Culture:     "Pre-Pottery Neolithic",
		Description: "The oldest known temple complex.",
		Mysteries:   []string{"Built before agriculture", "Deliberately buried"},
		Lat:         37.2232,
		Lon:         38.9225,
		Position:    Position{X: 180, Y: -120},
	},
	{
		ID:          "giza",
		Name:        "Giza Pyramids",
		Era:         "2580 BCE",
		Type:        SitePyramid,
		Culture:     "Ancient Egyptian",
		Description: "Precision engineering marvel.",
		Mysteries:   []string{"Perfect astronomical alignment", "Construction methods"},
		Lat:         29.9792,
		Lon:         31.1342,
		Position:    Position{X: -200, Y: 160},
	},
	{
		ID:          "stonehenge",
		Name:        "Stonehenge",
		Era:         "3000 BCE",
		Type:        SiteMegalith,
		Culture:     "Neolithic Britain",
		Description: "Iconic stone circle.",
		Mysteries:   []string{"Stone transportation", "Acoustic properties"},
		Lat:         51.1789,
		Lon:         -1.8262,
		Position:    Position{X: -260, Y: -220},
	},
	{
		ID:          "serpent-mound",
		Name:        "Serpent Mound",
		Era:         "1070 CE",
		Type:        SiteEarthwork,
		Culture:     "Fort Ancient",
		Description: "A quarter-mile effigy of an uncoiling serpent.",
		Mysteries:   []string{"Solstice-aligned head", "Disputed builders"},
		Lat:         39.0253,
		Lon:         -83.4303,
		Position:    Position{X: 320, Y: 240},
	},
	{
		ID:          "yonaguni",
		Name:        "Yonaguni Monument",
		Era:         "Unknown",
		Type:        SiteUnderwater,
		Culture:     "Unknown",
		Description: "Terraced rock formation off the coast of Yonaguni.",
		Mysteries:   []string{"Natural or carved", "Submerged since the last ice age"},
		Lat:         24.4350,
		Lon:         123.0110,
		Position:    Position{X: 40, Y: 360},
	},
}

var defaultUnlocked = []string{"gobekli-tepe", "giza", "stonehenge"}

// Heroes returns the hero catalog.
func Heroes() []Hero {
	out := make([]Hero, len(heroes))
	copy(out, heroes)
	return out
}

// LookupHero finds a hero by ID.
func LookupHero(id HeroID) (Hero, bool) {
	for _, h := range heroes {
		if h.ID == id {
			return h, true
		}
	}
	return Hero{}, false
}

// Sites returns the site catalog in catalog order.
func Sites() []Site {
	out := make([]Site, len(sites))
	for i, s := range sites {
		s.Mysteries = append([]string(nil), s.Mysteries...)
		out[i] = s
	}
	return out
}

// LookupSite finds a site by ID.
func LookupSite(id string) (Site, bool) {
	for _, s := range sites {
		if s.ID == id {
			s.Mysteries = append([]string(nil), s.Mysteries...)
			return s, true
		}
	}
	return Site{}, false
}

// DefaultUnlockedSites returns the sites available on a fresh profile.
func DefaultUnlockedSites() []string {
	return append([]string(nil), defaultUnlocked...)
}
