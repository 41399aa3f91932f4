// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (server.go, user.go, vote.go, ...) hold the shared
// types and the repository contracts the HTTP layer depends on. No
// implementation code lives here; keeping interfaces on the consumer side
// prevents circular imports between the server and database packages.
package domain
