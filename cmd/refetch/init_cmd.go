package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/refetch-dev/refetch/internal/config"
)

func initCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter refetch.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(dir, config.ConfigFileName)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}

			c := config.Default()
			c.Name = filepath.Base(absDir(dir))
			c.Sources = []config.SourceConfig{
				{
					Name:        "example",
					URL:         "https://api.example.com/data",
					StaleTimeMS: 30000,
					RetryCount:  2,
				},
			}
			if err := c.Save(dir); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "project directory")
	return cmd
}

func absDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}
