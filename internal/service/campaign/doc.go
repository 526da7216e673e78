// Package campaign exposes the campaigns ingested from connected platforms.
//
// Campaigns are created and updated only by the sync pipeline through
// Upsert; the API reads them. Repository implementations live in
// repository/postgres/.
package campaign
