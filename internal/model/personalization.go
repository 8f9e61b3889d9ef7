package model

import (
	"time"
)

// PersonalizationContext is a user's uploaded 360 assessment. Read-only input
// to prompt assembly.
type PersonalizationContext struct {
	UserID     string    `json:"userId"`
	Assessment string    `json:"assessment"`
	SourceText string    `json:"sourceText,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PutAssessmentRequest uploads or replaces the caller's assessment.
type PutAssessmentRequest struct {
	Assessment string `json:"assessment" validate:"required,max=200000"`
	SourceText string `json:"sourceText" validate:"max=500000"`
}
