package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrygo/skedule/store"
	"github.com/hrygo/skedule/store/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}
		driver, err := db.NewDBDriver(p)
		if err != nil {
			return err
		}
		s := store.New(driver, p)
		defer s.Close()
		if err := s.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "database ready (%s)\n", p.Driver)
		return nil
	},
}
