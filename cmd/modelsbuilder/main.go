// Command modelsbuilder generates Go models for the content types of a CMS.
//
// Usage:
//
//	modelsbuilder generate --source-file types.yaml --package example.com/site/models -o models
//	modelsbuilder watch --driver postgres --dsn "$DSN" --package example.com/site/models -o models
//	modelsbuilder inspect --graphql schema.graphql --models
//
// Settings are read from flags, MB_ environment variables, a .env file and
// modelsbuilder.{yaml,toml,json} in the working directory, in that order
// of precedence.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
