package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Amerone/dabase-tool/internal/configstore"
)

func newProfileCmd(a *app) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or save the default connection profile",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved profile, or the DATABASE_* environment fallback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store()
			if err != nil {
				return err
			}
			stored, err := st.Resolve()
			if err != nil {
				return err
			}
			a.print(describeProfile(stored))
			return nil
		},
	}

	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Save the connection flags as the default profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.connectionConfig(cmd)
			if err != nil {
				return err
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			stored, err := st.Save(cfg)
			if err != nil {
				return err
			}
			a.printInfo(fmt.Sprintf("Profile %s saved to %s", configstore.DefaultProfile, st.Path()))
			a.print(describeProfile(stored))
			return nil
		},
	}
	addConnFlags(saveCmd, &a.conn)

	profileCmd.AddCommand(showCmd, saveCmd)
	return profileCmd
}

// describeProfile renders a profile with the password masked.
func describeProfile(s *configstore.StoredConnection) string {
	cfg := s.Config
	out := fmt.Sprintf("source:   %s\nhost:     %s\nport:     %d\nusername: %s\npassword: %s\nschema:   %s\n",
		s.Source, cfg.Host, cfg.Port, cfg.Username, mask(cfg.Password), cfg.Schema)
	if cfg.ExportSchema != "" {
		out += fmt.Sprintf("export:   %s\n", cfg.ExportSchema)
	}
	if s.UpdatedAt != "" {
		out += fmt.Sprintf("updated:  %s\n", s.UpdatedAt)
	}
	return out
}

func mask(password string) string {
	if password == "" {
		return ""
	}
	return "********"
}
