package domain

// Domain contains the portal's result models.

// Conference is a call-for-papers listing.
type Conference struct {
	Acronym            string   `json:"acronym"`
	Name               string   `json:"name"`
	Link               string   `json:"link"`
	Location           string   `json:"location"`
	SubmissionDeadline string   `json:"submission_deadline"`
	StartDate          string   `json:"start_date"`
	Topics             []string `json:"topics"`
}

// Paper is a generated research paper split into sections.
type Paper struct {
	Title        string `json:"title"`
	Abstract     string `json:"abstract"`
	Introduction string `json:"introduction"`
	RelatedWork  string `json:"related_work"`
	Methodology  string `json:"methodology"`
	Results      string `json:"results"`
	Conclusion   string `json:"conclusion"`
	References   string `json:"references"`
}

// Question is a single multiple-choice question.
type Question struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty"`
}

// MCQSet is a batch of questions generated from an uploaded document.
type MCQSet struct {
	ID        string     `json:"id"`
	UserID    int        `json:"userId"`
	Questions []Question `json:"questions"`
	CreatedAt string     `json:"createdAt"`
}
