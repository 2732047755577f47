package qrportal

import "embed"

// Migrations holds the goose SQL migrations of the service database.
//
//go:embed migrations/*.sql
var Migrations embed.FS
