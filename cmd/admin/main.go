package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/contactbook/internal/admin"
)

func main() {
	if err := admin.NewRootCmd(admin.DefaultEnv()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
