package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tadeufagundes/go-geo-meet/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db   *sqlx.DB
	conf *core.Config
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - run a database migration command (up, down, status, ...)")
	fmt.Println("  createdb - create the application database and user if missing")
	fmt.Println("  mktoken -id ID [-name NAME] [-email EMAIL] - issue a teacher JWT for manual testing")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	mkTokenCmd := flag.NewFlagSet("mktoken", flag.ExitOnError)
	mkTokenID := mkTokenCmd.String("id", "", "The teacher's ID. Used as the token subject.")
	mkTokenName := mkTokenCmd.String("name", "", "The teacher's display name.")
	mkTokenEmail := mkTokenCmd.String("email", "", "The teacher's email.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "createdb":
		return cli.createDB()
	case "mktoken":
		if err := mkTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *mkTokenID == "" {
			mkTokenCmd.Usage()
			return errHelp
		}
		return cli.makeToken(*mkTokenID, *mkTokenName, *mkTokenEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}
