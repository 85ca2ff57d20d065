package normalize

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
)

const fullStudy = `{
  "protocolSection": {
    "identificationModule": {"nctId": "NCT01234567", "briefTitle": "Aspirin Study", "officialTitle": "A Study of Aspirin"},
    "statusModule": {
      "overallStatus": "RECRUITING",
      "startDateStruct": {"date": "2020-01-15"},
      "completionDateStruct": {"date": "2020-03-01"},
      "lastUpdatePostDateStruct": {"date": "2024-05-02"}
    },
    "designModule": {"phases": ["PHASE2", "PHASE3"], "studyType": "INTERVENTIONAL",
      "enrollmentInfo": {"count": 0, "type": "ESTIMATED"}},
    "conditionsModule": {"conditions": ["Stroke", "Hypertension"]},
    "armsInterventionsModule": {"interventions": [
      {"type": "DRUG", "name": "Aspirin", "description": "81 mg daily"},
      {}
    ]},
    "eligibilityModule": {"criteria": "Adults", "minimumAge": "18 Years",
      "gender": "FEMALE", "healthyVolunteers": "Yes"},
    "contactsLocationsModule": {"locations": [
      {"facility": "Mayo Clinic", "city": "Rochester", "state": "Minnesota", "country": "United States", "status": "RECRUITING"},
      {"city": "Paris"}
    ]},
    "sponsorCollaboratorsModule": {
      "leadSponsor": {"name": "Mayo", "class": "OTHER"},
      "collaborators": [{"name": "NIH"}]
    }
  },
  "hasResults": true
}`

func decode(t *testing.T, s string) RawStudy {
	t.Helper()
	var raw RawStudy
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return raw
}

func ptr[T any](v T) *T { return &v }

// TestRuleSchema pins every canonical field to its registry path.
func TestRuleSchema(t *testing.T) {
	want := map[string]string{
		"nctId":                  "protocolSection.identificationModule.nctId",
		"title":                  "protocolSection.identificationModule.briefTitle",
		"officialTitle":          "protocolSection.identificationModule.officialTitle",
		"status":                 "protocolSection.statusModule.overallStatus",
		"phase":                  "protocolSection.designModule.phases",
		"studyType":              "protocolSection.designModule.studyType",
		"enrollment.count":       "protocolSection.designModule.enrollmentInfo.count",
		"enrollment.type":        "protocolSection.designModule.enrollmentInfo.type",
		"conditions":             "protocolSection.conditionsModule.conditions",
		"interventions":          "protocolSection.armsInterventionsModule.interventions",
		"eligibility":            "protocolSection.eligibilityModule",
		"locations":              "protocolSection.contactsLocationsModule.locations",
		"startDate":              "protocolSection.statusModule.startDateStruct.date",
		"completionDate":         "protocolSection.statusModule.completionDateStruct.date",
		"lastUpdateDate":         "protocolSection.statusModule.lastUpdatePostDateStruct.date",
		"sponsors.lead":          "protocolSection.sponsorCollaboratorsModule.leadSponsor",
		"sponsors.collaborators": "protocolSection.sponsorCollaboratorsModule.collaborators",
		"resultsAvailable":       "hasResults",
	}

	got := make(map[string]string)
	for _, r := range Rules() {
		if _, dup := got[r.Field]; dup {
			t.Errorf("duplicate rule for %s", r.Field)
		}
		got[r.Field] = r.Path.String()
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rule table drifted:\n got %v\nwant %v", got, want)
	}
}

func TestNormalize_FullRecord(t *testing.T) {
	tr, err := Normalize(decode(t, fullStudy))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := trial.Trial{
		NCTID:         "NCT01234567",
		Title:         "Aspirin Study",
		OfficialTitle: "A Study of Aspirin",
		Status:        "RECRUITING",
		Phase:         []string{"PHASE2", "PHASE3"},
		StudyType:     "INTERVENTIONAL",
		Enrollment:    trial.Enrollment{Count: ptr(0), Type: "ESTIMATED"},
		Conditions:    []string{"Stroke", "Hypertension"},
		Interventions: []trial.Intervention{
			{Type: "DRUG", Name: "Aspirin", Description: "81 mg daily"},
			{Type: "N/A", Name: "N/A", Description: ""},
		},
		Eligibility: trial.Eligibility{
			Criteria: "Adults", MinAge: ptr("18 Years"), Gender: "FEMALE", HealthyVolunteers: true,
		},
		Locations: []trial.Location{
			{Facility: "Mayo Clinic", City: "Rochester", State: "Minnesota", Country: "United States", Status: "RECRUITING"},
			{City: "Paris"},
		},
		StartDate:      ptr("2020-01-15"),
		CompletionDate: ptr("2020-03-01"),
		LastUpdateDate: ptr("2024-05-02"),
		Sponsors: trial.Sponsors{
			Lead:          &trial.Sponsor{Name: "Mayo", Class: "OTHER"},
			Collaborators: []trial.Sponsor{{Name: "NIH", Class: "N/A"}},
		},
		ResultsAvailable: true,
		StudyDuration:    ptr(46),
	}
	if !reflect.DeepEqual(tr, want) {
		t.Errorf("Normalize mismatch:\n got %+v\nwant %+v", tr, want)
	}
}

func TestNormalize_MinimalRecordDefaults(t *testing.T) {
	tr, err := Normalize(decode(t, `{"protocolSection":{"identificationModule":{"nctId":"NCT1"}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tr.Title != "" || tr.OfficialTitle != "" || tr.Status != "" || tr.StudyType != "" {
		t.Errorf("string defaults not empty: %+v", tr)
	}
	if tr.Phase == nil || len(tr.Phase) != 0 {
		t.Errorf("phase = %#v, want empty non-nil", tr.Phase)
	}
	if tr.Enrollment.Count != nil || tr.Enrollment.Type != "N/A" {
		t.Errorf("enrollment = %+v", tr.Enrollment)
	}
	if len(tr.Conditions) != 0 || len(tr.Interventions) != 0 || len(tr.Locations) != 0 {
		t.Error("expected empty sequences")
	}
	if !reflect.DeepEqual(tr.Eligibility, trial.Eligibility{Gender: "All"}) {
		t.Errorf("eligibility = %+v", tr.Eligibility)
	}
	if tr.Sponsors.Lead != nil || tr.Sponsors.Collaborators == nil {
		t.Errorf("sponsors = %+v", tr.Sponsors)
	}
	if tr.StartDate != nil || tr.StudyDuration != nil || tr.ResultsAvailable {
		t.Errorf("unexpected dates/results: %+v", tr)
	}
}

func TestNormalize_ConditionsComeFromConditionsModule(t *testing.T) {
	raw := decode(t, `{"protocolSection":{
		"identificationModule":{"nctId":"NCT1"},
		"eligibilityModule":{"conditions":["wrong"]},
		"armsInterventionsModule":{"conditions":["wrong"]},
		"conditionsModule":{"conditions":["right"]}}}`)
	tr, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(tr.Conditions, []string{"right"}) {
		t.Errorf("conditions = %v", tr.Conditions)
	}
}

func TestNormalize_FieldEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, tr trial.Trial)
	}{
		{
			name: "healthy volunteers is case sensitive",
			raw:  `{"protocolSection":{"identificationModule":{"nctId":"N"},"eligibilityModule":{"healthyVolunteers":"yes"}}}`,
			check: func(t *testing.T, tr trial.Trial) {
				if tr.Eligibility.HealthyVolunteers {
					t.Error(`"yes" must not count as healthy volunteers`)
				}
			},
		},
		{
			name: "healthy volunteers boolean is not Yes",
			raw:  `{"protocolSection":{"identificationModule":{"nctId":"N"},"eligibilityModule":{"healthyVolunteers":true}}}`,
			check: func(t *testing.T, tr trial.Trial) {
				if tr.Eligibility.HealthyVolunteers {
					t.Error("boolean true must not count")
				}
				if tr.Eligibility.Gender != "All" {
					t.Errorf("gender = %q", tr.Eligibility.Gender)
				}
			},
		},
		{
			name: "wrong types fall back to defaults",
			raw: `{"protocolSection":{"identificationModule":{"nctId":"N","briefTitle":42},
				"designModule":{"phases":"PHASE1","enrollmentInfo":{"count":"12"}},
				"conditionsModule":{"conditions":["a",7,"b"]},
				"contactsLocationsModule":{"locations":{"city":"x"}}},"hasResults":"true"}`,
			check: func(t *testing.T, tr trial.Trial) {
				if tr.Title != "" {
					t.Errorf("title = %q", tr.Title)
				}
				if len(tr.Phase) != 0 {
					t.Errorf("phase = %v", tr.Phase)
				}
				if tr.Enrollment.Count != nil {
					t.Errorf("count = %v", *tr.Enrollment.Count)
				}
				if !reflect.DeepEqual(tr.Conditions, []string{"a", "b"}) {
					t.Errorf("conditions = %v", tr.Conditions)
				}
				if len(tr.Locations) != 0 || tr.ResultsAvailable {
					t.Errorf("locations/results = %v/%v", tr.Locations, tr.ResultsAvailable)
				}
			},
		},
		{
			name: "registry eligibilityCriteria wins over criteria",
			raw:  `{"protocolSection":{"identificationModule":{"nctId":"N"},"eligibilityModule":{"eligibilityCriteria":"Inclusion: adults","criteria":"old"}}}`,
			check: func(t *testing.T, tr trial.Trial) {
				if tr.Eligibility.Criteria != "Inclusion: adults" {
					t.Errorf("criteria = %q", tr.Eligibility.Criteria)
				}
			},
		},
		{
			name: "lead sponsor node without fields",
			raw:  `{"protocolSection":{"identificationModule":{"nctId":"N"},"sponsorCollaboratorsModule":{"leadSponsor":{}}}}`,
			check: func(t *testing.T, tr trial.Trial) {
				if tr.Sponsors.Lead == nil || *tr.Sponsors.Lead != (trial.Sponsor{Name: "N/A", Class: "N/A"}) {
					t.Errorf("lead = %+v", tr.Sponsors.Lead)
				}
			},
		},
		{
			name: "empty age strings become null",
			raw:  `{"protocolSection":{"identificationModule":{"nctId":"N"},"eligibilityModule":{"minimumAge":"","maximumAge":"65 Years"}}}`,
			check: func(t *testing.T, tr trial.Trial) {
				if tr.Eligibility.MinAge != nil {
					t.Errorf("minAge = %q", *tr.Eligibility.MinAge)
				}
				if tr.Eligibility.MaxAge == nil || *tr.Eligibility.MaxAge != "65 Years" {
					t.Errorf("maxAge = %v", tr.Eligibility.MaxAge)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Normalize(decode(t, tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, tr)
		})
	}
}

func TestNormalize_Skips(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"no protocol section", `{"hasResults":true}`, ErrNoProtocol},
		{"null protocol section", `{"protocolSection":null}`, ErrNoProtocol},
		{"protocol section not an object", `{"protocolSection":"x"}`, ErrNoProtocol},
		{"no identification module", `{"protocolSection":{}}`, ErrNoID},
		{"empty nctId", `{"protocolSection":{"identificationModule":{"nctId":""}}}`, ErrNoID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(decode(t, tt.raw))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, domain.ErrDataShape) {
				t.Errorf("skip reason should wrap ErrDataShape, got %v", err)
			}
		})
	}
}

func TestNormalizeAll_NeverGrowsAndCounts(t *testing.T) {
	raws := []RawStudy{
		decode(t, fullStudy),
		decode(t, `{}`),
		decode(t, `{"protocolSection":{}}`),
		decode(t, `{"protocolSection":{"identificationModule":{"nctId":"NCT2"}}}`),
	}

	out, st := NormalizeAll(raws)
	if len(out) != 2 || st.Kept != 2 {
		t.Fatalf("kept = %d/%d, want 2", len(out), st.Kept)
	}
	if st.Total != 4 || st.NoProtocol != 1 || st.NoID != 1 || st.Skipped() != 2 {
		t.Errorf("stats = %+v", st)
	}
	if out[0].NCTID != "NCT01234567" || out[1].NCTID != "NCT2" {
		t.Errorf("order not preserved: %s, %s", out[0].NCTID, out[1].NCTID)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := decode(t, fullStudy)
	a, errA := Normalize(raw)
	b, errB := Normalize(raw)
	if errA != nil || errB != nil {
		t.Fatalf("errors: %v, %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Normalize is not deterministic")
	}
}

func TestStudyDuration(t *testing.T) {
	tests := []struct {
		name       string
		start, end *string
		want       *int
	}{
		{"whole days", ptr("2020-01-01"), ptr("2020-01-31"), ptr(30)},
		{"same day", ptr("2020-01-01"), ptr("2020-01-01"), ptr(0)},
		{"leap year", ptr("2020-02-01"), ptr("2020-03-01"), ptr(29)},
		{"month precision", ptr("2020-01"), ptr("2020-03"), ptr(60)},
		{"mixed precision", ptr("2021-06"), ptr("2021-06-15"), ptr(14)},
		{"four centuries", ptr("1700-01-01"), ptr("2100-01-01"), ptr(146097)},
		{"negative", ptr("2020-02-01"), ptr("2020-01-01"), nil},
		{"missing start", nil, ptr("2020-01-01"), nil},
		{"missing end", ptr("2020-01-01"), nil, nil},
		{"unparseable", ptr("sometime"), ptr("2020-01-01"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StudyDuration(tt.start, tt.end)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("StudyDuration = %v, want %v", deref(got), deref(tt.want))
			}
		})
	}
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": "x"}, "n": nil, "s": "leaf"},
	}
	if v, ok := Lookup(doc, P("a.b.c")); !ok || v != "x" {
		t.Errorf("a.b.c = %v, %v", v, ok)
	}
	for _, p := range []string{"a.n", "a.s.deeper", "missing", "a.b.c.d"} {
		if _, ok := Lookup(doc, P(p)); ok {
			t.Errorf("Lookup(%s) should miss", p)
		}
	}
}
