package dto

import "jobscout/internal/extraction"

type ResumeTextRequest struct {
	Text string `json:"text"`
}

type StoreResumeResponse struct {
	Profile extraction.Profile `json:"profile"`
	Refresh *RefreshResponse   `json:"refresh,omitempty"`
}
