package booking

import "github.com/iliyamo/table-reservation/internal/model"

// Session describes who is calling. The transport layer builds one per
// request and passes it into every operation; the engine keeps no
// per-connection state. The zero value is an anonymous caller.
type Session struct {
	// CustomerID is set for an authenticated customer.
	CustomerID uint64
	// StaffRole is set for an authenticated staff member.
	StaffRole string
	// OnBehalfOf is the customer a staff member is acting for, if any.
	OnBehalfOf uint64
}

// Anonymous returns the session of an unauthenticated caller.
func Anonymous() Session { return Session{} }

// Customer returns the session of an authenticated customer.
func Customer(id uint64) Session { return Session{CustomerID: id} }

// Staff returns the session of an authenticated staff member.
func Staff(role string) Session { return Session{StaffRole: role} }

// ActingFor returns a copy of a staff session acting for customerID.
func (s Session) ActingFor(customerID uint64) Session {
	s.OnBehalfOf = customerID
	return s
}

func (s Session) IsStaff() bool     { return model.IsStaffRole(s.StaffRole) }
func (s Session) IsCustomer() bool  { return s.CustomerID != 0 }
func (s Session) IsAnonymous() bool { return !s.IsStaff() && !s.IsCustomer() }

// effectiveCustomer is the customer a booking is made for: the caller
// itself, or the customer a staff member acts for.
func (s Session) effectiveCustomer() (uint64, bool) {
	switch {
	case s.IsCustomer():
		return s.CustomerID, true
	case s.IsStaff() && s.OnBehalfOf != 0:
		return s.OnBehalfOf, true
	}
	return 0, false
}

// canAccess reports whether the caller may read or change r.
func (s Session) canAccess(r model.Reservation) bool {
	if s.IsStaff() {
		return true
	}
	return s.IsCustomer() && r.OwnedBy(s.CustomerID)
}
