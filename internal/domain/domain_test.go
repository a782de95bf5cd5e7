package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateForLevel(t *testing.T) {
	assert.Equal(t, 35.00, RateForLevel(CareHigh))
	assert.Equal(t, 30.00, RateForLevel(CareMedium))
	assert.Equal(t, 25.00, RateForLevel(CareLow))
}

func TestBandForHour(t *testing.T) {
	cases := map[int]ShiftType{
		0:  ShiftMorning,
		11: ShiftMorning,
		12: ShiftAfternoon,
		16: ShiftAfternoon,
		17: ShiftNight,
		23: ShiftNight,
	}
	for hour, want := range cases {
		assert.Equal(t, want, BandForHour(hour), "hour %d", hour)
	}
}

func TestMedicationDueAt(t *testing.T) {
	m := Medication{Times: []string{"08:00", "17:30"}}
	assert.True(t, m.DueAt(TimeMorning))
	assert.False(t, m.DueAt(TimeAfternoon))
	assert.True(t, m.DueAt(TimeEvening))

	bad := Medication{Times: []string{"later"}}
	assert.False(t, bad.DueAt(TimeMorning))
}

func TestShiftDraftBuild(t *testing.T) {
	staff := "2"
	s := ShiftDraft{Date: "2024-05-20", Duration: 60, StaffID: &staff}.Build("x")
	assert.Equal(t, ShiftConfirmed, s.Status)
	require.NotNil(t, s.StaffID)
	assert.Equal(t, "2", *s.StaffID)

	empty := ""
	u := ShiftDraft{Date: "2024-05-20", Duration: 60, StaffID: &empty}.Build("y")
	assert.Equal(t, ShiftUnassigned, u.Status)
	assert.Nil(t, u.StaffID)
}

func TestClientJSONFlatShape(t *testing.T) {
	// snapshot written by the browser build
	raw := `{"id":"c3","name":"William Smith","address":"12 Baker Street, London","postcode":"NW1 6XE","careType":"Domiciliary","careLevel":"Low","extra":true}`

	var c Client
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	d, ok := c.Placement.(Domiciliary)
	require.True(t, ok)
	assert.Equal(t, "NW1 6XE", d.Postcode)
	assert.Equal(t, CareLow, c.CareLevel)
	assert.Zero(t, c.HourlyRate)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "Domiciliary", m["careType"])
	assert.Equal(t, "12 Baker Street, London", m["address"])
	assert.NotContains(t, m, "roomNumber")
}

func TestPlacementForInfersMissingCareType(t *testing.T) {
	assert.Equal(t, Residential{RoomNumber: "7"}, PlacementFor("", "7", "", ""))
	assert.Equal(t, Domiciliary{Address: "1 High St", Postcode: "AB1 2CD"}, PlacementFor("", "", "1 High St", "AB1 2CD"))
}

func TestReconcileHoursSeed(t *testing.T) {
	staff := SeedStaff()
	changed := ReconcileHours(staff, SeedShifts())
	assert.NotEmpty(t, changed)

	byID := map[string]float64{}
	for _, s := range staff {
		byID[s.ID] = s.CurrentHours
	}
	assert.Equal(t, 1.0, byID["2"])
	assert.Equal(t, 0.75, byID["3"])
	assert.Equal(t, 10.0, byID["5"])
	assert.Equal(t, 0.0, byID["4"])

	assert.Empty(t, ReconcileHours(staff, SeedShifts()))
}

func TestClientCloneIsDeep(t *testing.T) {
	c := SeedClients()[0]
	cp := c.Clone()
	cp.Medications[0].StockLevel = 0
	cp.Medications[0].Times[0] = "09:00"
	assert.Equal(t, 28, c.Medications[0].StockLevel)
	assert.Equal(t, "08:00", c.Medications[0].Times[0])
}
