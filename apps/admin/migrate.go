package main

import "github.com/trezcool/blogclass/storage/database"

var runMigrationsFunc database.MigrateFunc = database.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	return runMigrationsFunc(args[0], cli.db, args[1:]...)
}
