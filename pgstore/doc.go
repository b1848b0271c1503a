// Package pgstore keeps sessions, one-time credentials and users in Postgres.
//
// A single [Store] implements session.Store, credential.Store and
// goSession.UserProvider over a pgxpool.Pool. Call [Store.Migrate] once at
// startup; migrations are versioned and serialized with an advisory lock so
// several processes can start concurrently.
//
// Credential consumption is a single DELETE ... RETURNING filtered on the
// live expiry and the stored digest, so concurrent consumers of the same code
// see exactly one success.
package pgstore
