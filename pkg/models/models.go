package models

// ShiftEntry is one roster line: a person covering a zone on a date between
// two wall-clock times ("2:00 PM" style, or plain 24-hour "14:00").
type ShiftEntry struct {
	Zone       string `json:"zone" yaml:"zone"`
	Date       string `json:"date" yaml:"date"`
	StartTime  string `json:"startTime" yaml:"startTime"`
	EndTime    string `json:"endTime" yaml:"endTime"`
	PersonName string `json:"personName" yaml:"personName"`
}

// Building is a row of the zone directory
type Building struct {
	Building string `json:"building" yaml:"building"`
	Code     string `json:"code" yaml:"code"`
	Zone     string `json:"zone" yaml:"zone"`
}

// Candidate is a person currently on shift joined with today's selection count
type Candidate struct {
	PersonName     string `json:"person_name"`
	SelectionCount int    `json:"selection_count"`
}

// NoSuggestion is returned in SuggestionResult.Suggested when nobody is on shift.
const NoSuggestion = "NA"

// SuggestionResult is the outcome of a shift selection
type SuggestionResult struct {
	OnShift   []string `json:"on_shift"`
	Suggested string   `json:"suggested"`
	Textual   string   `json:"textual"`
}

// Suggestion is a SuggestionResult together with the building it was asked for
type Suggestion struct {
	Building Building `json:"-"`
	SuggestionResult
}

// SuggestionResponse is the JSON body returned by the suggest endpoints
type SuggestionResponse struct {
	OnShift   []string `json:"on_shift"`
	Suggested string   `json:"suggested"`
	Textual   string   `json:"textual"`
	Building  string   `json:"building,omitempty"`
	Code      string   `json:"code,omitempty"`
	Zone      string   `json:"zone,omitempty"`
}

// Response flattens a Suggestion for the HTTP layer
func (s *Suggestion) Response() SuggestionResponse {
	onShift := s.OnShift
	if onShift == nil {
		onShift = []string{}
	}
	return SuggestionResponse{
		OnShift:   onShift,
		Suggested: s.Suggested,
		Textual:   s.Textual,
		Building:  s.Building.Building,
		Code:      s.Building.Code,
		Zone:      s.Building.Zone,
	}
}

// SuggestInput is the body of POST /api/suggest-person
type SuggestInput struct {
	Building string `json:"building"`
}

// IssueInput is the body of the free-text endpoints
type IssueInput struct {
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
}
