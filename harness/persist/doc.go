// Package persist implements the durability run: seed the server with a
// generated key set, delete a random fifth of it, restart the server
// process and verify that every surviving key reads back its exact
// pre-restart value. The run is a strict sequential pipeline; every phase
// depends on the completed side effect of the previous one.
package persist
