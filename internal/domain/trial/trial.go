// Package trial holds the canonical clinical-trial record and the shapes the
// query side returns.
package trial

// Trial is the canonical, storage-ready record of one clinical trial.
//
// Pipeline-owned fields are rewritten by every load; the AI-augmented fields at
// the bottom are written only by augmentation runs.
type Trial struct {
	NCTID            string         `json:"nctId"`
	Title            string         `json:"title"`
	OfficialTitle    string         `json:"officialTitle"`
	Status           string         `json:"status"`
	Phase            []string       `json:"phase"`
	StudyType        string         `json:"studyType"`
	Enrollment       Enrollment     `json:"enrollment"`
	Conditions       []string       `json:"conditions"`
	Interventions    []Intervention `json:"interventions"`
	Eligibility      Eligibility    `json:"eligibility"`
	Locations        []Location     `json:"locations"`
	StartDate        *string        `json:"startDate"`
	CompletionDate   *string        `json:"completionDate"`
	LastUpdateDate   *string        `json:"lastUpdateDate"`
	Sponsors         Sponsors       `json:"sponsors"`
	ResultsAvailable bool           `json:"resultsAvailable"`
	StudyDuration    *int           `json:"studyDuration"`

	Embedding                      []float32      `json:"embedding,omitempty"`
	Summary                        *string        `json:"summary,omitempty"`
	Keywords                       []string       `json:"keywords,omitempty"`
	ComplexityScore                *float64       `json:"complexityScore,omitempty"`
	PredictedRecruitmentDifficulty *string        `json:"predictedRecruitmentDifficulty,omitempty"`
	RelatedTrials                  []RelatedTrial `json:"relatedTrials,omitempty"`
}

// Enrollment is the planned or actual participant count. Count is nil when the
// registry does not report one; an explicit zero is kept.
type Enrollment struct {
	Count *int   `json:"count"`
	Type  string `json:"type"`
}

// Intervention is one arm intervention.
type Intervention struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Eligibility holds participant criteria.
type Eligibility struct {
	Criteria          string  `json:"criteria"`
	MinAge            *string `json:"minAge"`
	MaxAge            *string `json:"maxAge"`
	Gender            string  `json:"gender"`
	HealthyVolunteers bool    `json:"healthyVolunteers"`
}

// DefaultEligibility is used when the registry omits the eligibility section.
func DefaultEligibility() Eligibility {
	return Eligibility{Gender: "All"}
}

// Location is a trial site. Coordinates stay nil until geocoded.
type Location struct {
	Facility    string `json:"facility"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Status      string `json:"status"`
	Coordinates *Point `json:"coordinates,omitempty"`
}

// Point is a GeoJSON point; Coordinates are [lng, lat].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewPoint builds a GeoJSON point from latitude and longitude.
func NewPoint(lat, lng float64) *Point {
	return &Point{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

// Lng returns the longitude.
func (p *Point) Lng() float64 { return p.Coordinates[0] }

// Lat returns the latitude.
func (p *Point) Lat() float64 { return p.Coordinates[1] }

// Sponsor is a lead sponsor or collaborator.
type Sponsor struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

// Sponsors groups the lead sponsor (nil when absent) and collaborators.
type Sponsors struct {
	Lead          *Sponsor  `json:"lead"`
	Collaborators []Sponsor `json:"collaborators"`
}

// RelatedTrial is a nearest neighbour in embedding space.
type RelatedTrial struct {
	NCTID      string  `json:"nctId"`
	Similarity float64 `json:"similarity"`
}
