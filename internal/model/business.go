package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Business is one listing inside a group export.
type Business struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

// WebsiteURL returns a navigable URL for the website.
// Bare hosts get an https:// scheme.
func (b *Business) WebsiteURL() string {
	site := strings.TrimSpace(b.Website)
	if site == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(site), "http") {
		return site
	}
	return "https://" + site
}

// DisplayWebsite returns the website without its http(s) scheme.
func (b *Business) DisplayWebsite() string {
	site := strings.TrimSpace(b.Website)
	lower := strings.ToLower(site)
	switch {
	case strings.HasPrefix(lower, "https://"):
		return site[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		return site[len("http://"):]
	}
	return site
}

// Initial returns the upper-cased first letter of the name.
func (b *Business) Initial() string {
	r, _ := utf8.DecodeRuneInString(b.Name)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// GroupExport describes the group a listing belongs to.
type GroupExport struct {
	Name        string   `json:"name"`
	Keywords    []string `json:"keywords"`
	Cities      []string `json:"cities"`
	ActualCount int      `json:"actualCount"`
}

// GroupDetails is the response of GET /businesses/export/:id.
type GroupDetails struct {
	Export     GroupExport `json:"export"`
	Businesses []Business  `json:"businesses"`
	Total      int         `json:"total"`
}

// CSVFile holds a downloaded export.
type CSVFile struct {
	Data        []byte
	ContentType string
}
