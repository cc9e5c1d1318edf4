package main

import (
	"context"
	"fmt"
	"os"

	"fjacquet/sci-ledger/cmd/account"
	"fjacquet/sci-ledger/cmd/calls"
	importcmd "fjacquet/sci-ledger/cmd/import"
	"fjacquet/sci-ledger/cmd/invoice"
	"fjacquet/sci-ledger/cmd/movements"
	"fjacquet/sci-ledger/cmd/property"
	"fjacquet/sci-ledger/cmd/rent"
	"fjacquet/sci-ledger/cmd/root"
	"fjacquet/sci-ledger/cmd/serve"
	"fjacquet/sci-ledger/cmd/tenant"
	"fjacquet/sci-ledger/cmd/token"
	"fjacquet/sci-ledger/cmd/ventilate"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(movements.Cmd)
	root.Cmd.AddCommand(calls.Cmd)
	root.Cmd.AddCommand(ventilate.Cmd)
	root.Cmd.AddCommand(account.Cmd)
	root.Cmd.AddCommand(property.Cmd)
	root.Cmd.AddCommand(tenant.Cmd)
	root.Cmd.AddCommand(rent.Cmd)
	root.Cmd.AddCommand(invoice.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(token.Cmd)
}

func main() {
	if err := root.Cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
