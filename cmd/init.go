package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Grego-GT/spielberg/internal/log"
	"github.com/Grego-GT/spielberg/internal/templates"
)

var initFlags struct {
	force bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a spielberg working directory",
	Long:  "Scaffold spielberg.yaml and .env.example into the current directory.",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	return initProject(dir, initFlags.force)
}

// initProject is the testable core of the init command. It copies the
// embedded scaffold files into the target directory, skipping any that
// already exist unless force is set.
func initProject(dir string, force bool) error {
	// Embedded source path → destination filename. The env example is
	// renamed so it sits next to the .env the user will create from it.
	scaffold := []struct {
		src string
		dst string
	}{
		{"init/spielberg.yaml", "spielberg.yaml"},
		{"init/env.example", ".env.example"},
	}

	for _, f := range scaffold {
		path := filepath.Join(dir, f.dst)
		if !force {
			if _, statErr := os.Stat(path); statErr == nil {
				log.Warning(fmt.Sprintf("%s already exists — skipping (use --force to overwrite)", f.dst))
				continue
			}
		}

		data, err := templates.Init.ReadFile(f.src)
		if err != nil {
			return fmt.Errorf("read template %s: %w", f.src, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.dst, err)
		}
		log.Success(fmt.Sprintf("created %s", f.dst))
	}

	log.Info("initialized — fill in .env (see .env.example), then run: spielberg run --prompt \"...\"")
	return nil
}
