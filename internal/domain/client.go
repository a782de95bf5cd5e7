package domain

import "encoding/json"

// Placement where care is delivered: Residential or Domiciliary.
type Placement interface {
	CareType() CareType
}

// Residential in-home care, room based
type Residential struct {
	RoomNumber string
}

func (Residential) CareType() CareType { return CareResidential }

// Domiciliary care delivered at the client's address
type Domiciliary struct {
	Address  string
	Postcode string
}

func (Domiciliary) CareType() CareType { return CareDomiciliary }

// Client a person receiving care.
type Client struct {
	ID          string
	Name        string
	Placement   Placement
	CareLevel   CareLevel
	HourlyRate  float64
	Medications []Medication
}

// RateForLevel hourly billing rate for a care level. Every create or edit
// path derives the client rate through here.
func RateForLevel(level CareLevel) float64 {
	switch level {
	case CareHigh:
		return 35.00
	case CareMedium:
		return 30.00
	default:
		return 25.00
	}
}

// CareType of the placement, Residential when unset.
func (c Client) CareType() CareType {
	if c.Placement == nil {
		return CareResidential
	}
	return c.Placement.CareType()
}

// RoomNumber or "" for domiciliary clients.
func (c Client) RoomNumber() string {
	if r, ok := c.Placement.(Residential); ok {
		return r.RoomNumber
	}
	return ""
}

// Postcode or "" for residential clients.
func (c Client) Postcode() string {
	if d, ok := c.Placement.(Domiciliary); ok {
		return d.Postcode
	}
	return ""
}

// Medication finds a medication by id.
func (c *Client) Medication(id string) (*Medication, bool) {
	for i := range c.Medications {
		if c.Medications[i].ID == id {
			return &c.Medications[i], true
		}
	}
	return nil, false
}

// clientJSON the flat stored shape
type clientJSON struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	CareType    CareType     `json:"careType"`
	RoomNumber  string       `json:"roomNumber,omitempty"`
	Address     string       `json:"address,omitempty"`
	Postcode    string       `json:"postcode,omitempty"`
	CareLevel   CareLevel    `json:"careLevel"`
	HourlyRate  float64      `json:"hourlyRate"`
	Medications []Medication `json:"medications,omitempty"`
}

func (c Client) MarshalJSON() ([]byte, error) {
	out := clientJSON{
		ID:          c.ID,
		Name:        c.Name,
		CareType:    c.CareType(),
		CareLevel:   c.CareLevel,
		HourlyRate:  c.HourlyRate,
		Medications: c.Medications,
	}
	switch p := c.Placement.(type) {
	case Residential:
		out.RoomNumber = p.RoomNumber
	case Domiciliary:
		out.Address = p.Address
		out.Postcode = p.Postcode
	}
	return json.Marshal(out)
}

func (c *Client) UnmarshalJSON(data []byte) error {
	var in clientJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = Client{
		ID:          in.ID,
		Name:        in.Name,
		Placement:   PlacementFor(in.CareType, in.RoomNumber, in.Address, in.Postcode),
		CareLevel:   in.CareLevel,
		HourlyRate:  in.HourlyRate,
		Medications: in.Medications,
	}
	return nil
}

// PlacementFor builds the variant from flat fields. An unknown care type is
// inferred from which fields are present.
func PlacementFor(careType CareType, room, address, postcode string) Placement {
	switch careType {
	case CareResidential:
		return Residential{RoomNumber: room}
	case CareDomiciliary:
		return Domiciliary{Address: address, Postcode: postcode}
	}
	if room == "" && (address != "" || postcode != "") {
		return Domiciliary{Address: address, Postcode: postcode}
	}
	return Residential{RoomNumber: room}
}
