package customers

import (
	"strings"
	"time"
)

// Address is a value type, so assigning one copies all seven fields.
type Address struct {
	Street   string `json:"street"`
	Line2    string `json:"line2"`
	City     string `json:"city"`
	District string `json:"district"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Pin      string `json:"pin"`
}

func (a Address) String() string {
	parts := make([]string, 0, 7)
	for _, p := range []string{a.Street, a.Line2, a.City, a.District, a.State, a.Country, a.Pin} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// POC is a point of contact at the customer.
type POC struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

type Social struct {
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Facebook string `json:"facebook,omitempty"`
}

type Customer struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Industry   string `json:"industry"`
	GSTIN      string `json:"gstin"`
	SalesRepID int64  `json:"sales_rep_id,omitempty"`
	Social     Social `json:"social"`
	POCs       []POC  `json:"pocs"`

	Billing  Address `json:"billing"`
	Shipping Address `json:"shipping"`
	// WPC is the licence address used for wireless planning paperwork.
	WPC Address `json:"wpc"`

	SameAsBilling    bool `json:"same_as_billing"`
	WPCSameAsBilling bool `json:"wpc_same_as_billing"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetSameAsBilling snapshots billing into shipping when turned on.
// Turning it off keeps the copied values; nothing is re-validated.
func (c *Customer) SetSameAsBilling(on bool) {
	c.SameAsBilling = on
	if on {
		c.Shipping = c.Billing
	}
}

// SetWPCSameAsBilling is SetSameAsBilling for the WPC address.
func (c *Customer) SetWPCSameAsBilling(on bool) {
	c.WPCSameAsBilling = on
	if on {
		c.WPC = c.Billing
	}
}

// ApplyAddressFlags copies billing only for flags that were just switched
// on relative to prev (nil for a new customer). A flag that stays on does
// not copy again, so later billing edits do not reach shipping or WPC.
func (c *Customer) ApplyAddressFlags(prev *Customer) {
	if c.SameAsBilling && (prev == nil || !prev.SameAsBilling) {
		c.SetSameAsBilling(true)
	}
	if c.WPCSameAsBilling && (prev == nil || !prev.WPCSameAsBilling) {
		c.SetWPCSameAsBilling(true)
	}
}
