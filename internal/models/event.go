package models

import (
	"github.com/uptrace/bun"
)

// Event is the stored and wire-facing calendar event. Timestamps are unix
// seconds. Nullable columns are pointers so they serialize as explicit JSON
// nulls rather than being omitted.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID           int64    `bun:"id,pk,autoincrement" json:"id"`
	Title        string   `bun:"title,notnull" json:"title"`
	Description  *string  `bun:"description" json:"description"`
	Color        *string  `bun:"color" json:"color"`
	StartDate    int64    `bun:"start_date,notnull" json:"startDate"`
	EndDate      int64    `bun:"end_date,notnull" json:"endDate"`
	LocationLng  *float64 `bun:"location_lng" json:"locationLng"`
	LocationLat  *float64 `bun:"location_lat" json:"locationLat"`
	LocationName *string  `bun:"location_name" json:"locationName"`
	CreatedAt    int64    `bun:"created_at,notnull" json:"createdAt"`
	EditedAt     *int64   `bun:"edited_at" json:"editedAt"`
}

// NewEvent is the request body for event creation. ID, createdAt and
// editedAt are assigned by the back end.
type NewEvent struct {
	Title        string   `json:"title"`
	Description  *string  `json:"description"`
	Color        *string  `json:"color"`
	StartDate    int64    `json:"startDate"`
	EndDate      int64    `json:"endDate"`
	LocationLng  *float64 `json:"locationLng"`
	LocationLat  *float64 `json:"locationLat"`
	LocationName *string  `json:"locationName"`
}

// EventPatch is a partial update, nil fields are left unchanged.
type EventPatch struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Color        *string  `json:"color"`
	StartDate    *int64   `json:"startDate"`
	EndDate      *int64   `json:"endDate"`
	LocationLng  *float64 `json:"locationLng"`
	LocationLat  *float64 `json:"locationLat"`
	LocationName *string  `json:"locationName"`
}

// TimeWindow restricts event listings to events overlapping [From, To].
type TimeWindow struct {
	From int64
	To   int64
}

// EventGuest mirrors the event_guests draft table which is still commented
// out in the schema. No operations exist for it yet, guest management stays
// disabled until the association table is activated.
type EventGuest struct {
	bun.BaseModel `bun:"table:event_guests"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	EventID   int64  `bun:"event_id,notnull" json:"eventId"`
	GuestName string `bun:"guest_name,notnull" json:"guestName"`
}
