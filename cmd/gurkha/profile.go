package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dayvoid97/gurkha-go/api"
	"github.com/dayvoid97/gurkha-go/internal/utils"
)

func newProfileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View and edit the signed-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newProfileSetCommand(a))
	return cmd
}

func newProfileSetCommand(a *app) *cobra.Command {
	var displayName, bio, country string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields; unset flags are left untouched",
		RunE: func(cmd *cobra.Command, args []string) error {
			var update api.ProfileUpdate
			if cmd.Flags().Changed("name") {
				update.DisplayName = utils.Ptr(displayName)
			}
			if cmd.Flags().Changed("bio") {
				update.Bio = utils.Ptr(bio)
			}
			if cmd.Flags().Changed("country") {
				update.Country = utils.Ptr(country)
			}

			user, err := a.api.Profile.Update(commandContext(cmd), update)
			if err != nil {
				return err
			}
			fmt.Printf("Updated profile for %s\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "Display name")
	cmd.Flags().StringVar(&bio, "bio", "", "Profile bio")
	cmd.Flags().StringVar(&country, "country", "", "Country code")
	return cmd
}
