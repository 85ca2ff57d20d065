package trial

// Paging defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// ListFilter holds the optional list predicates. Empty strings and a nil
// HasResults mean "not applied".
type ListFilter struct {
	Status     string
	Phase      string
	Condition  string
	Sponsor    string
	HasResults *bool
}

// IsEmpty reports whether no predicate is set.
func (f ListFilter) IsEmpty() bool {
	return f.Status == "" && f.Phase == "" && f.Condition == "" && f.Sponsor == "" && f.HasResults == nil
}

// Pagination is a 1-based page request.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize applies defaults to non-positive values and caps Limit at maxLimit
// when maxLimit > 0.
func (p Pagination) Normalize(maxLimit int) Pagination {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Offset returns the zero-based index of the first item on the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Summary is the reduced projection returned by list views.
type Summary struct {
	NCTID      string   `json:"nctId"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	Phase      []string `json:"phase"`
	Conditions []string `json:"conditions"`
	StartDate  *string  `json:"startDate"`
}

// Page is the pagination envelope for list, search and nearby results.
type Page struct {
	Query       string    `json:"query,omitempty"`
	TotalPages  int       `json:"totalPages"`
	CurrentPage int       `json:"currentPage"`
	TotalTrials int       `json:"totalTrials"`
	Trials      []Summary `json:"trials"`
}

// NewPage builds the envelope; TotalPages is ceil(total/limit).
func NewPage(p Pagination, total int, trials []Summary) Page {
	if trials == nil {
		trials = []Summary{}
	}
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Page{
		TotalPages:  pages,
		CurrentPage: p.Page,
		TotalTrials: total,
		Trials:      trials,
	}
}

// Count is one aggregation bucket.
type Count struct {
	Key   string `json:"_id"`
	Count int    `json:"count"`
}

// YearCount is one start-year bucket.
type YearCount struct {
	Year  int `json:"_id"`
	Count int `json:"count"`
}

// Stats is the statistics overview.
type Stats struct {
	TopConditions []Count     `json:"topConditions"`
	StatusCounts  []Count     `json:"statusCounts"`
	TrialsByYear  []YearCount `json:"trialsByYear"`
}

// Prediction carries the stored recruitment outlook for a trial.
type Prediction struct {
	NCTID                          string   `json:"nctId"`
	PredictedRecruitmentDifficulty *string  `json:"predictedRecruitmentDifficulty"`
	ComplexityScore                *float64 `json:"complexityScore"`
	Message                        string   `json:"message,omitempty"`
}

// Step names an augmentation run tracked per record.
type Step string

// Augmentation steps.
const (
	StepEmbedding Step = "embedding"
	StepSummary   Step = "summary"
	StepGeocode   Step = "geocode"
)
