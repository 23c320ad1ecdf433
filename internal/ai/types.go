package ai

// ShortlistMatch is one job link the model selected as a plausible fit.
type ShortlistMatch struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Reason string `json:"reason,omitempty"`
}

// ShortlistResponse is the model output of the initial matching pass.
type ShortlistResponse struct {
	Matches []ShortlistMatch `json:"matches"`
}

// AnalysisResult is the deep suitability analysis of a single job posting.
type AnalysisResult struct {
	URL                 string   `json:"url"`
	Title               string   `json:"title"`
	SuitabilityScore    int      `json:"suitabilityScore"`
	GoodFitReasons      []string `json:"goodFitReasons"`
	ConsiderationPoints []string `json:"considerationPoints"`
	StretchGoals        []string `json:"stretchGoals"`
	Location            string   `json:"location,omitempty"`
	TechStack           []string `json:"techStack,omitempty"`
	Salary              string   `json:"salary,omitempty"`
	VisaSponsorship     *bool    `json:"visaSponsorship,omitempty"`
}

// AnalysisResponse is the model output of the deep analysis pass.
type AnalysisResponse struct {
	Results []AnalysisResult `json:"results"`
}
