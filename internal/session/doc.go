// Package session owns the console's authentication state.
//
// # Overview
//
// A Store holds the access token and the signed-in user's profile. It is created
// once per process, hydrated from durable storage in NewStore, and then mutated
// only by Login, Logout, FetchCurrentUser and ForceLogout.
//
// # Derived Flags
//
// IsAuthenticated is token != "". IsAdmin is a non-nil profile whose user_type
// equals the administrator type (1 unless configured otherwise). Neither flag is
// stored; both are recomputed on every read.
//
// # Persistence
//
// The token and profile live under the "token" and "user" keys and are written
// and cleared together:
//
//	Login             token + user written in one Set
//	FetchCurrentUser  user rewritten
//	Logout            both deleted (server notified best effort)
//	ForceLogout       both deleted, no server call
//
// # Failure Policy
//
// Login failures leave the session untouched and surface one notice. A failed
// FetchCurrentUser is treated as an expired or revoked session and ends in a
// silent logout.
package session
