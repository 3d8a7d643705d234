package model

import "time"

// User represents an account holder as stored in the `users` table.
// The record store does not hold credentials; authentication is the
// responsibility of the external identity provider, which mints the
// access tokens carrying a user id as subject.
//
// Fields:
//  ID        – UUID primary key of the user.
//  Email     – unique, lower-cased email address.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update, refreshed by the database.
type User struct {
    ID        string    // users.id
    Email     string    // users.email
    CreatedAt time.Time // users.created_at
    UpdatedAt time.Time // users.updated_at
}
