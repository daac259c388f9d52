package models

// Card is a single catalog entry as returned by the cards endpoint.
type Card struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Number string            `json:"number"` // Number within the set, not always numeric (e.g. "H7", "SV12")
	Images map[string]string `json:"images"` // Image size label ("small", "large") to URL
}

// Set describes one catalog set as returned by the sets endpoint.
type Set struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Series       string `json:"series"`
	PrintedTotal int    `json:"printedTotal"`
	Total        int    `json:"total"`
	ReleaseDate  string `json:"releaseDate"`
}

// Page is the envelope every paginated catalog endpoint answers with.
type Page[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Count      int `json:"count"`
	TotalCount int `json:"totalCount"`
}
