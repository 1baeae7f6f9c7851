package main

import (
	_ "embed"

	"github.com/urfave/cli/v2"

	"github.com/yenulab/yenu/internal/store"
)

//go:embed seed.json
var seedJSON []byte

// seedCmd creates the seed command.
func seedCmd(st *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Load the bundled starter recipes (existing recipes with the same slug are replaced)",
		Action: func(c *cli.Context) error {
			result, err := st.ImportJSON(seedJSON)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}
