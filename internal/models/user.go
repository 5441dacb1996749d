package models

import (
	"github.com/uptrace/bun"
)

// User is a calendar participant. The username is the primary key and is
// case-insensitively unique (COLLATE NOCASE in the schema). Users are
// immutable after creation.
type User struct {
	bun.BaseModel `bun:"table:users"`

	Username  string `bun:"username,pk" json:"username"`
	CreatedAt int64  `bun:"created_at,notnull" json:"createdAt"`
}

// NewUser is the request body for user creation, the missing fields are
// generated by the back end.
type NewUser struct {
	Username string `json:"username"`
}
