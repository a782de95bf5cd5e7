package domain

// Staff a member of the care team.
// CurrentHours always equals the sum of duration/60 over Confirmed shifts
// assigned to this member and is never negative.
type Staff struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Role             StaffRole        `json:"role"`
	ContractedHours  float64          `json:"contractedHours"`
	CurrentHours     float64          `json:"currentHours"`
	Rating           float64          `json:"rating"`
	ComplianceStatus ComplianceStatus `json:"complianceStatus"`
	HourlyRate       float64          `json:"hourlyRate"`
}

// IsOvertime current hours above contract
func (s Staff) IsOvertime() bool {
	return s.CurrentHours > s.ContractedHours
}

// AddHours applies delta and clamps the result at zero.
func (s *Staff) AddHours(delta float64) {
	s.CurrentHours += delta
	if s.CurrentHours < 0 {
		s.CurrentHours = 0
	}
}
