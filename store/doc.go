// Package store holds the in-memory demo repositories backing each
// department. Every store is safe for concurrent use and seeded with fixture
// data; confirmed actions mutate the store, previews never do. Stores are
// injected into the bundles that use them, never reached through globals.
package store
