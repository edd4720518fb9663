package models

import "strings"

// ADFDocument is a minimal Atlassian Document Format tree. Jira Cloud v3
// requires rich-text fields (description, comments) in this format.
type ADFDocument struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []ADFNode `json:"content"`
}

// ADFNode is a node in an ADF tree. Only paragraph and text nodes are
// produced by this service; anything else is tolerated on read.
type ADFNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Content []ADFNode `json:"content,omitempty"`
}

// NewADFDocument wraps plain text in a single-paragraph ADF document.
func NewADFDocument(text string) *ADFDocument {
	return &ADFDocument{
		Type:    "doc",
		Version: 1,
		Content: []ADFNode{
			{
				Type: "paragraph",
				Content: []ADFNode{
					{Type: "text", Text: text},
				},
			},
		},
	}
}

// PlainText flattens an ADF tree back to text, one line per block node.
func (d *ADFDocument) PlainText() string {
	if d == nil {
		return ""
	}
	var lines []string
	for _, node := range d.Content {
		if text := node.plainText(); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

func (n ADFNode) plainText() string {
	if n.Type == "text" {
		return n.Text
	}
	var parts []string
	for _, child := range n.Content {
		if text := child.plainText(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
