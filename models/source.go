package models

type Source struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type SourceInsert struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}
