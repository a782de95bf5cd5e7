package domain

// StaffRole job role label, stored verbatim in snapshots
type StaffRole string

const (
	RoleManager  StaffRole = "Registered Manager"
	RoleSenior   StaffRole = "Senior Carer"
	RoleCarer    StaffRole = "Care Assistant"
	RoleNurse    StaffRole = "Nurse"
	RoleDomestic StaffRole = "Domestic/Housekeeping"
)

// Valid reports whether r is one of the known roles.
func (r StaffRole) Valid() bool {
	switch r {
	case RoleManager, RoleSenior, RoleCarer, RoleNurse, RoleDomestic:
		return true
	}
	return false
}

// ShiftType time band of a shift
type ShiftType string

const (
	ShiftMorning   ShiftType = "Morning (07:00-14:30)"
	ShiftAfternoon ShiftType = "Afternoon (14:00-21:30)"
	ShiftLongDay   ShiftType = "Long Day (07:00-21:30)"
	ShiftNight     ShiftType = "Night (21:00-07:30)"
)

// AllShiftTypes in rota display order.
var AllShiftTypes = []ShiftType{ShiftMorning, ShiftAfternoon, ShiftLongDay, ShiftNight}

func (t ShiftType) Valid() bool {
	switch t {
	case ShiftMorning, ShiftAfternoon, ShiftLongDay, ShiftNight:
		return true
	}
	return false
}

type CareType string

const (
	CareResidential CareType = "Residential"
	CareDomiciliary CareType = "Domiciliary"
)

type CareLevel string

const (
	CareLow    CareLevel = "Low"
	CareMedium CareLevel = "Medium"
	CareHigh   CareLevel = "High"
)

func (l CareLevel) Valid() bool {
	return l == CareLow || l == CareMedium || l == CareHigh
}

// ComplianceStatus traffic light set outside this service
type ComplianceStatus string

const (
	ComplianceGreen ComplianceStatus = "Green"
	ComplianceAmber ComplianceStatus = "Amber"
	ComplianceRed   ComplianceStatus = "Red"
)

type ShiftStatus string

const (
	ShiftUnassigned ShiftStatus = "Unassigned"
	// ShiftAssigned is part of the stored vocabulary but never produced here.
	ShiftAssigned  ShiftStatus = "Assigned"
	ShiftConfirmed ShiftStatus = "Confirmed"
)

type MedicationStatus string

const (
	MedScheduled MedicationStatus = "Scheduled"
	MedTaken     MedicationStatus = "Taken"
	MedRefused   MedicationStatus = "Refused"
	MedMissed    MedicationStatus = "Missed"
	MedPRN       MedicationStatus = "PRN (As Needed)"
)

func (s MedicationStatus) Valid() bool {
	switch s {
	case MedScheduled, MedTaken, MedRefused, MedMissed, MedPRN:
		return true
	}
	return false
}

// RecurrenceKind expansion rule for bulk visits
type RecurrenceKind string

const (
	RecurDaily       RecurrenceKind = "Daily"
	RecurWeekdayOnly RecurrenceKind = "Weekdays"
	RecurWeekly      RecurrenceKind = "Weekly"
)

func (k RecurrenceKind) Valid() bool {
	return k == RecurDaily || k == RecurWeekdayOnly || k == RecurWeekly
}

// TimeOfDay eMAR round
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "Morning"
	TimeAfternoon TimeOfDay = "Afternoon"
	TimeEvening   TimeOfDay = "Evening"
)

func (t TimeOfDay) Valid() bool {
	return t == TimeMorning || t == TimeAfternoon || t == TimeEvening
}
