package appfs

import "embed"

// FS holds the files shipped inside the binaries: SQL migrations, email templates & data files.
//go:embed migrations/*.sql templates/email/* data/*
var FS embed.FS

const (
	MigrationsDir     = "migrations"
	EmailTemplatesDir = "templates/email"
	CommonPasswords   = "data/common-passwords.txt"
)
