package domain

import "math"

// DefaultPayRate starting hourly pay for a role when intake omits one.
func DefaultPayRate(role StaffRole) float64 {
	switch role {
	case RoleManager:
		return 19.50
	case RoleNurse:
		return 22.00
	case RoleSenior:
		return 13.25
	case RoleDomestic:
		return 11.44
	default:
		return 11.90
	}
}

// SeedStaff the demo team used when the store holds no staff snapshot.
// Hours are reconciled against SeedShifts when seeded.
func SeedStaff() []Staff {
	mk := func(id, name string, role StaffRole, contracted, current, rating float64, cs ComplianceStatus) Staff {
		return Staff{
			ID:               id,
			Name:             name,
			Role:             role,
			ContractedHours:  contracted,
			CurrentHours:     current,
			Rating:           rating,
			ComplianceStatus: cs,
			HourlyRate:       DefaultPayRate(role),
		}
	}
	return []Staff{
		mk("1", "Sarah Jenkins", RoleManager, 37.5, 35, 5, ComplianceGreen),
		mk("2", "David Thompson", RoleSenior, 40, 44, 4.8, ComplianceAmber),
		mk("3", "Emma Wilson", RoleCarer, 30, 28, 4.5, ComplianceGreen),
		mk("4", "James Miller", RoleCarer, 24, 36, 4.2, ComplianceRed),
		mk("5", "Linda Carter", RoleNurse, 37.5, 37.5, 4.9, ComplianceGreen),
		mk("6", "Robert Hall", RoleCarer, 40, 40, 4.0, ComplianceGreen),
	}
}

func SeedClients() []Client {
	mk := func(id, name string, p Placement, level CareLevel) Client {
		return Client{ID: id, Name: name, Placement: p, CareLevel: level, HourlyRate: RateForLevel(level)}
	}
	c1 := mk("c1", "Arthur Bentley", Residential{RoomNumber: "101"}, CareHigh)
	c1.Medications = []Medication{
		{ID: "m1", Name: "Donepezil", Dosage: "10mg", Frequency: "Daily", Times: []string{"08:00"}, Instructions: "Take with breakfast", StockLevel: 28},
		{ID: "m2", Name: "Paracetamol", Dosage: "500mg", Frequency: "Four times daily", Times: []string{"08:00", "12:00", "17:00", "22:00"}, StockLevel: 6},
	}
	c4 := mk("c4", "Elizabeth Jones", Residential{RoomNumber: "201"}, CareHigh)
	c4.Medications = []Medication{
		{ID: "m3", Name: "Metformin", Dosage: "500mg", Frequency: "Twice daily", Times: []string{"08:30", "18:30"}, Instructions: "With food", StockLevel: 56},
	}
	return []Client{
		c1,
		mk("c2", "Margaret Rose", Residential{RoomNumber: "104"}, CareMedium),
		mk("c3", "William Smith", Domiciliary{Address: "12 Baker Street, London", Postcode: "NW1 6XE"}, CareLow),
		c4,
		mk("c5", "George Harrison", Domiciliary{Address: "45 Abbey Road, London", Postcode: "NW8 9AY"}, CareMedium),
	}
}

func SeedShifts() []Shift {
	return []Shift{
		{ID: "s1", StaffID: StringPtr("2"), ClientID: StringPtr("c1"), Date: "2024-05-20", Type: ShiftMorning, StartTime: "08:00", Duration: 60, Status: ShiftConfirmed},
		{ID: "s2", StaffID: StringPtr("3"), ClientID: StringPtr("c3"), Date: "2024-05-20", Type: ShiftMorning, StartTime: "09:30", Duration: 45, Status: ShiftConfirmed},
		{ID: "s3", StaffID: StringPtr("5"), ClientID: StringPtr("c4"), Date: "2024-05-20", Type: ShiftNight, StartTime: "21:00", Duration: 600, Status: ShiftConfirmed},
		{ID: "s4", StaffID: nil, ClientID: StringPtr("c5"), Date: "2024-05-20", Type: ShiftAfternoon, StartTime: "14:30", Duration: 30, Status: ShiftUnassigned},
	}
}

func SeedMedicationLogs() []MedicationLog {
	return []MedicationLog{}
}

// ReconcileHours recomputes CurrentHours for every member from Confirmed shifts.
// It returns the ids whose value changed.
func ReconcileHours(staff []Staff, shifts []Shift) []string {
	totals := make(map[string]float64, len(staff))
	for _, s := range shifts {
		if s.Status != ShiftConfirmed || s.StaffID == nil {
			continue
		}
		totals[*s.StaffID] += s.Hours()
	}
	var changed []string
	for i := range staff {
		want := totals[staff[i].ID]
		if math.Abs(staff[i].CurrentHours-want) > 1e-9 {
			staff[i].CurrentHours = want
			changed = append(changed, staff[i].ID)
		}
	}
	return changed
}
