package jira

// ADF (Atlassian Document Format) nodes used by REST v3 rich text fields.
type document struct {
	Type    string      `json:"type"`
	Version int         `json:"version"`
	Content []paragraph `json:"content"`
}

type paragraph struct {
	Type    string     `json:"type"`
	Content []textNode `json:"content"`
}

type textNode struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// newDocument wraps plain text into a single-paragraph ADF document.
func newDocument(text string) document {
	return document{
		Type:    "doc",
		Version: 1,
		Content: []paragraph{{
			Type:    "paragraph",
			Content: []textNode{{Type: "text", Text: text}},
		}},
	}
}

type keyRef struct {
	Key string `json:"key"`
}

type nameRef struct {
	Name string `json:"name"`
}

type createIssueFields struct {
	Project     keyRef   `json:"project"`
	Summary     string   `json:"summary"`
	Description document `json:"description"`
	IssueType   nameRef  `json:"issuetype"`
}

type createIssueRequest struct {
	Fields createIssueFields `json:"fields"`
}

type createIssueResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

type issueResponse struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  *struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
	} `json:"fields"`
}
