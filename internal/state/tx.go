package state

import "github.com/djval79/caresync1/internal/domain"

type dirtySet struct {
	staff, shifts, clients, medLogs bool
}

func (d dirtySet) any() bool {
	return d.staff || d.shifts || d.clients || d.medLogs
}

// Tx working copy handed to a Mutate callback.
type Tx struct {
	View
	dirty dirtySet
}

func (tx *Tx) TouchStaff()   { tx.dirty.staff = true }
func (tx *Tx) TouchShifts()  { tx.dirty.shifts = true }
func (tx *Tx) TouchClients() { tx.dirty.clients = true }
func (tx *Tx) TouchMedLogs() { tx.dirty.medLogs = true }

// Staff lookup by id; the pointer aliases the working copy.
func (tx *Tx) StaffByID(id string) *domain.Staff {
	for i := range tx.Staff {
		if tx.Staff[i].ID == id {
			return &tx.Staff[i]
		}
	}
	return nil
}

func (tx *Tx) ShiftByID(id string) *domain.Shift {
	for i := range tx.Shifts {
		if tx.Shifts[i].ID == id {
			return &tx.Shifts[i]
		}
	}
	return nil
}

func (tx *Tx) ClientByID(id string) *domain.Client {
	for i := range tx.Clients {
		if tx.Clients[i].ID == id {
			return &tx.Clients[i]
		}
	}
	return nil
}

// ApplyHours adds each delta once to its staff member, clamping at zero.
// Ids that no longer resolve are skipped.
func (tx *Tx) ApplyHours(deltas map[string]float64) {
	touched := false
	for id, d := range deltas {
		if d == 0 {
			continue
		}
		if st := tx.StaffByID(id); st != nil {
			st.AddHours(d)
			touched = true
		}
	}
	if touched {
		tx.TouchStaff()
	}
}
