package models

import "fmt"

// Response envelope conventions shared by the workspace v1 API routes.
// List responses use the HATEOAS wrapping (_embedded, _links, page); detail
// responses carry the record directly under data.

const (
	TypeRecordList    = "HATEOAS_RECORD_LIST"
	TypeRecordDetails = "RECORD_DETAILS"
	SourceJira        = "jira"
)

// Envelope is the common wrapper for every v1 response.
type Envelope struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Data     any    `json:"data,omitempty"`
	Type     string `json:"type,omitempty"`
	Source   string `json:"source,omitempty"`
	Error    string `json:"error,omitempty"`
	Solution string `json:"solution,omitempty"`
}

// ListData is the HATEOAS payload of a list response.
type ListData struct {
	Embedded Embedded       `json:"_embedded"`
	Links    map[string]Link `json:"_links"`
	Page     Page           `json:"page"`
}

// Embedded holds the typed collections of a list response.
type Embedded struct {
	Tasks    []Task    `json:"tasks,omitempty"`
	Subtasks []Subtask `json:"subtasks,omitempty"`
}

// Link is a HATEOAS hyperlink.
type Link struct {
	Href string `json:"href"`
}

// Page describes the returned slice of the collection.
type Page struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

// TaskListEnvelope builds the GET /tasks success envelope.
func TaskListEnvelope(tasks []Task, selfHref string) Envelope {
	return Envelope{
		Status:  "success",
		Message: fmt.Sprintf("%d tasks retrieved from Jira", len(tasks)),
		Data: ListData{
			Embedded: Embedded{Tasks: tasks},
			Links:    map[string]Link{"self": {Href: selfHref}},
			Page: Page{
				Size:          len(tasks),
				TotalElements: len(tasks),
				TotalPages:    1,
				Number:        0,
			},
		},
		Type:   TypeRecordList,
		Source: SourceJira,
	}
}

// SubtaskListEnvelope builds the GET /subtasks success envelope.
func SubtaskListEnvelope(subtasks []Subtask, selfHref string) Envelope {
	return Envelope{
		Status:  "success",
		Message: fmt.Sprintf("%d subtasks retrieved from Jira", len(subtasks)),
		Data: ListData{
			Embedded: Embedded{Subtasks: subtasks},
			Links:    map[string]Link{"self": {Href: selfHref}},
			Page: Page{
				Size:          len(subtasks),
				TotalElements: len(subtasks),
				TotalPages:    1,
				Number:        0,
			},
		},
		Type:   TypeRecordList,
		Source: SourceJira,
	}
}

// DetailEnvelope builds a single-record success envelope.
func DetailEnvelope(message string, data any) Envelope {
	return Envelope{
		Status:  "success",
		Message: message,
		Data:    data,
		Type:    TypeRecordDetails,
		Source:  SourceJira,
	}
}

// ErrorEnvelope builds a failure envelope. The solution string, when
// present, gives the caller a remediation hint distinct from the raw error.
func ErrorEnvelope(message, errDetail, solution string) Envelope {
	return Envelope{
		Status:   "error",
		Message:  message,
		Error:    errDetail,
		Solution: solution,
		Source:   SourceJira,
	}
}
