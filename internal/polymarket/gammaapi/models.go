package gammaapi

// Market represents a Gamma API market
type Market struct {
	ID          string   `json:"id"`
	ConditionID string   `json:"conditionId"`
	Slug        string   `json:"slug"`
	Question    string   `json:"question"`
	EndDate     string   `json:"endDate"`
	CreatedAt   string   `json:"createdAt"`
	Category    string   `json:"category"`
	Volume24hr  *float64 `json:"volume24hr"`
	VolumeNum   *float64 `json:"volumeNum"`
	Active      bool     `json:"active"`
	Closed      bool     `json:"closed"`
}

// Key returns the identifier markets are stored under: the condition ID when
// present, otherwise the Gamma ID.
func (m Market) Key() string {
	if m.ConditionID != "" {
		return m.ConditionID
	}
	return m.ID
}

// Status maps the active/closed flags onto a stored status value
func (m Market) Status() string {
	if m.Active && !m.Closed {
		return "active"
	}
	return "closed"
}
