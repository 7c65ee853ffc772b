package model

import "time"

// The methods below let the generic repository assign identity and
// timestamps without knowing the concrete entity type.

func (p *Patient) EntityID() string { return p.ID }

func (p *Patient) Stamp(id string, now time.Time) {
	p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
}

func (p *Patient) Touch(now time.Time) { p.UpdatedAt = now }

// Normalize fills defaults missing from records written by older versions.
func (p *Patient) Normalize() {
	if p.Medications == nil {
		p.Medications = []string{}
	}
}

func (c *Chair) EntityID() string { return c.ID }

func (c *Chair) Stamp(id string, now time.Time) {
	c.ID, c.CreatedAt, c.UpdatedAt = id, now, now
}

func (c *Chair) Touch(now time.Time) { c.UpdatedAt = now }

func (m *Medication) EntityID() string { return m.ID }

func (m *Medication) Stamp(id string, now time.Time) {
	m.ID, m.CreatedAt, m.UpdatedAt = id, now, now
}

func (m *Medication) Touch(now time.Time) { m.UpdatedAt = now }

func (a *Appointment) EntityID() string { return a.ID }

func (a *Appointment) Stamp(id string, now time.Time) {
	a.ID, a.CreatedAt, a.UpdatedAt = id, now, now
}

func (a *Appointment) Touch(now time.Time) { a.UpdatedAt = now }

func (v *Visit) EntityID() string { return v.ID }

func (v *Visit) Stamp(id string, now time.Time) {
	v.ID, v.CreatedAt, v.UpdatedAt = id, now, now
}

func (v *Visit) Touch(now time.Time) { v.UpdatedAt = now }

func (u *User) EntityID() string { return u.ID }

func (u *User) Stamp(id string, now time.Time) {
	u.ID, u.CreatedAt = id, now
}

// Touch is a no-op: users carry no modification timestamp.
func (u *User) Touch(time.Time) {}
