package normalize

import "github.com/Josconicme/trial-insight/internal/domain/trial"

// Rule extracts one canonical field: the node at Path is passed through a
// transform, and the default is used when the node is absent or rejected.
type Rule struct {
	Field string
	Path  Path
	apply func(raw map[string]any, t *trial.Trial)
}

func field[T any](name, path string, def T, transform func(any) (T, bool), set func(*trial.Trial, T)) Rule {
	p := P(path)
	return Rule{
		Field: name,
		Path:  p,
		apply: func(raw map[string]any, t *trial.Trial) {
			v := def
			if node, ok := Lookup(raw, p); ok {
				if got, ok := transform(node); ok {
					v = got
				}
			}
			set(t, v)
		},
	}
}

const (
	identification = "protocolSection.identificationModule."
	status         = "protocolSection.statusModule."
	design         = "protocolSection.designModule."
)

var rules = []Rule{
	field("nctId", identification+"nctId", "", nonEmptyString,
		func(t *trial.Trial, v string) { t.NCTID = v }),
	field("title", identification+"briefTitle", "", nonEmptyString,
		func(t *trial.Trial, v string) { t.Title = v }),
	field("officialTitle", identification+"officialTitle", "", nonEmptyString,
		func(t *trial.Trial, v string) { t.OfficialTitle = v }),
	field("status", status+"overallStatus", "", nonEmptyString,
		func(t *trial.Trial, v string) { t.Status = v }),
	field("phase", design+"phases", []string{}, stringList,
		func(t *trial.Trial, v []string) { t.Phase = v }),
	field("studyType", design+"studyType", "", nonEmptyString,
		func(t *trial.Trial, v string) { t.StudyType = v }),
	field("enrollment.count", design+"enrollmentInfo.count", nil, count,
		func(t *trial.Trial, v *int) { t.Enrollment.Count = v }),
	field("enrollment.type", design+"enrollmentInfo.type", "N/A", nonEmptyString,
		func(t *trial.Trial, v string) { t.Enrollment.Type = v }),
	field("conditions", "protocolSection.conditionsModule.conditions", []string{}, stringList,
		func(t *trial.Trial, v []string) { t.Conditions = v }),
	field("interventions", "protocolSection.armsInterventionsModule.interventions",
		[]trial.Intervention{}, interventions,
		func(t *trial.Trial, v []trial.Intervention) { t.Interventions = v }),
	field("eligibility", "protocolSection.eligibilityModule", trial.DefaultEligibility(), eligibility,
		func(t *trial.Trial, v trial.Eligibility) { t.Eligibility = v }),
	field("locations", "protocolSection.contactsLocationsModule.locations", []trial.Location{}, locations,
		func(t *trial.Trial, v []trial.Location) { t.Locations = v }),
	field("startDate", status+"startDateStruct.date", nil, optionalString,
		func(t *trial.Trial, v *string) { t.StartDate = v }),
	field("completionDate", status+"completionDateStruct.date", nil, optionalString,
		func(t *trial.Trial, v *string) { t.CompletionDate = v }),
	field("lastUpdateDate", status+"lastUpdatePostDateStruct.date", nil, optionalString,
		func(t *trial.Trial, v *string) { t.LastUpdateDate = v }),
	field("sponsors.lead", "protocolSection.sponsorCollaboratorsModule.leadSponsor", nil, sponsor,
		func(t *trial.Trial, v *trial.Sponsor) { t.Sponsors.Lead = v }),
	field("sponsors.collaborators", "protocolSection.sponsorCollaboratorsModule.collaborators",
		[]trial.Sponsor{}, sponsors,
		func(t *trial.Trial, v []trial.Sponsor) { t.Sponsors.Collaborators = v }),
	field("resultsAvailable", "hasResults", false, boolean,
		func(t *trial.Trial, v bool) { t.ResultsAvailable = v }),
}

// Rules returns the extraction table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
