package model

// Panel identifies a supplementary overlay shown next to a question.
type Panel string

const (
	PanelNone        Panel = ""
	PanelExplanation Panel = "explanation"
	PanelReading     Panel = "reading"
	PanelPractice    Panel = "practice"
)

// AllPanels lists the panels in display order.
var AllPanels = []Panel{PanelExplanation, PanelReading, PanelPractice}

// ParsePanel converts a request value into a Panel.
func ParsePanel(s string) (Panel, bool) {
	for _, p := range AllPanels {
		if string(p) == s {
			return p, true
		}
	}
	return PanelNone, false
}

// Title is the heading used when a panel is displayed.
func (p Panel) Title() string {
	switch p {
	case PanelExplanation:
		return "Explanation"
	case PanelReading:
		return "Reading Material"
	case PanelPractice:
		return "Practice Material"
	}
	return ""
}
