package models

// Recommendation is one suggested catalog item in a user's feed
type Recommendation struct {
	ModuleID  string  `json:"moduleId"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Reason    string  `json:"reason"`
	Score     float64 `json:"score"`
}
