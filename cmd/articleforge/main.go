package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/articleforge/cmd/articleforge/commands"
	"git.home.luguber.info/inful/articleforge/internal/foundation/errors"
	"git.home.luguber.info/inful/articleforge/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	ctx := kong.Parse(cli,
		kong.Name("articleforge"),
		kong.Description("Generate SEO articles through a staged pipeline"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	err := ctx.Run(global, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
