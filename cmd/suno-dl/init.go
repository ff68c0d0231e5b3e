package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sunodl/suno-dl/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented config template",
	Long: `Write a fully commented config template to path (default "suno-dl.toml").

Every value in the template is commented out and set to its default;
uncomment and edit the ones to change. The token can also reference an
environment variable, e.g. token = "${SUNO_TOKEN}".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInitCmd,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
}

func runInitCmd(cmd *cobra.Command, args []string) error {
	path := defaultConfigPath
	if len(args) > 0 {
		path = args[0]
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.WriteDefault(path); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	fmt.Println(dimStyle.Render("Edit it, then run: suno-dl"))
	return nil
}
