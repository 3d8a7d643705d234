package model

// Principal identifies the caller of a record-store operation.  Regular
// callers carry the user id from their access token and are confined to
// rows inside their ownership chain.  The trusted backend identity sets
// Service instead, which bypasses ownership scoping entirely; that bypass
// is an all-or-nothing decision made once when the request is
// authenticated, never per query.
type Principal struct {
    UserID  string // subject of the access token; empty for the service identity
    Service bool   // true when the caller presented the backend service key
}

// ServicePrincipal is the trusted backend identity.
func ServicePrincipal() Principal { return Principal{Service: true} }

// UserPrincipal identifies a regular account holder.
func UserPrincipal(userID string) Principal { return Principal{UserID: userID} }
