package flags

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tos-network/veilpay/params"
	"github.com/urfave/cli/v2"
)

// NewApp creates an app with sane defaults.
func NewApp(gitCommit, gitDate, usage string) *cli.App {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Name = filepath.Base(os.Args[0])
	app.Version = versionWithCommit(gitCommit, gitDate)
	app.Usage = usage
	app.Copyright = "Copyright 2024-2026 The veilpay Authors"
	return app
}

func versionWithCommit(gitCommit, gitDate string) string {
	vsn := params.VersionWithMeta
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	if (len(gitCommit) >= 8) && (gitDate != "") {
		vsn += "-" + gitDate
	}
	return vsn
}

// CheckExclusive verifies that only a single instance of the provided flags was
// set by the user.
func CheckExclusive(ctx *cli.Context, names ...string) error {
	var set []string
	for _, name := range names {
		if ctx.IsSet(name) {
			set = append(set, "--"+name)
		}
	}
	if len(set) > 1 {
		return fmt.Errorf("flags %v can't be used at the same time", set)
	}
	return nil
}
