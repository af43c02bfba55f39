package model

// Table is a physical seating unit. Tables are restaurant configuration and
// read-only to the reservation engine; whether a table is occupied is derived
// from the reservations that hold it.
//
// Fields:
//
//	ID       – primary key identifier.
//	Number   – unique number shown on the floor plan.
//	Capacity – seat count.
type Table struct {
	ID       uint64 // restaurant_tables.id
	Number   int    // restaurant_tables.number
	Capacity int    // restaurant_tables.capacity
}

// SizeClass summarises tables of one capacity during a time window.
type SizeClass struct {
	Capacity int `json:"capacity"`
	Total    int `json:"total"`
	Free     int `json:"free"`
}
