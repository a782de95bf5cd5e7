package domain

func (m Medication) Clone() Medication {
	out := m
	if m.Times != nil {
		out.Times = append([]string(nil), m.Times...)
	}
	return out
}

func (c Client) Clone() Client {
	out := c
	if c.Medications != nil {
		out.Medications = make([]Medication, len(c.Medications))
		for i, m := range c.Medications {
			out.Medications[i] = m.Clone()
		}
	}
	return out
}

func (s Shift) Clone() Shift {
	out := s
	if s.StaffID != nil {
		v := *s.StaffID
		out.StaffID = &v
	}
	if s.ClientID != nil {
		v := *s.ClientID
		out.ClientID = &v
	}
	return out
}

func CloneStaff(in []Staff) []Staff {
	if in == nil {
		return nil
	}
	return append([]Staff(nil), in...)
}

func CloneClients(in []Client) []Client {
	if in == nil {
		return nil
	}
	out := make([]Client, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func CloneShifts(in []Shift) []Shift {
	if in == nil {
		return nil
	}
	out := make([]Shift, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func CloneLogs(in []MedicationLog) []MedicationLog {
	if in == nil {
		return nil
	}
	return append([]MedicationLog(nil), in...)
}
