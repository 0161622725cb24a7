package main

import (
	"fmt"

	echoapi "github.com/tadeufagundes/go-geo-meet/apps/api/echo"
	"github.com/tadeufagundes/go-geo-meet/core"
)

func (cli *commandLine) makeToken(id, name, email string) error {
	claims := echoapi.GetIdentityClaims(cli.conf, core.Identity{ID: id, Name: name, Email: email})
	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
