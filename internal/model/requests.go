package model

// StartSessionRequest redeems a handoff and opens a quiz session.
type StartSessionRequest struct {
	HandoffID string `json:"handoff_id" form:"handoff_id" binding:"required,uuid"`
}

// AnswerRequest selects an option of the current question.
// OptionID is a pointer because 0 is a valid option id.
type AnswerRequest struct {
	OptionID *int64 `json:"option_id" form:"option_id" binding:"required"`
}

// PanelRequest opens a supplementary panel.
type PanelRequest struct {
	Panel string `json:"panel" form:"panel" binding:"required,oneof=explanation reading practice"`
}
