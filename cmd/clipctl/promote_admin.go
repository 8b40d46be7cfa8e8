package main

import (
	"fmt"

	"github.com/clipstream/backend/internal/database"
	"github.com/clipstream/backend/internal/models"
	"github.com/spf13/cobra"
)

var (
	promoteEmail  string
	promoteRevoke bool
)

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin",
	Short: "Grant or revoke admin privileges for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if promoteEmail == "" {
			return fmt.Errorf("--email is required")
		}

		if err := database.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.Close()

		var user models.User
		if err := database.DB.Where("email = ?", promoteEmail).First(&user).Error; err != nil {
			return fmt.Errorf("user not found: %s", promoteEmail)
		}

		if promoteRevoke {
			if !user.IsAdmin {
				fmt.Printf("⚠️  User %s is not an admin\n", user.Username)
				return nil
			}
			user.IsAdmin = false
			if err := database.DB.Save(&user).Error; err != nil {
				return fmt.Errorf("failed to revoke admin privileges: %w", err)
			}
			fmt.Printf("✓ Admin privileges revoked for %s (%s)\n", user.Username, user.Email)
			return nil
		}

		if user.IsAdmin {
			fmt.Printf("⚠️  User %s is already an admin\n", user.Username)
			return nil
		}
		user.IsAdmin = true
		if err := database.DB.Save(&user).Error; err != nil {
			return fmt.Errorf("failed to grant admin privileges: %w", err)
		}
		fmt.Printf("✓ Admin privileges granted to %s (%s)\n", user.Username, user.Email)
		fmt.Println("  The user must log out and log back in for changes to take effect")
		return nil
	},
}

func init() {
	promoteAdminCmd.Flags().StringVar(&promoteEmail, "email", "", "Email address of the user")
	promoteAdminCmd.Flags().BoolVar(&promoteRevoke, "revoke", false, "Revoke admin privileges instead of granting")
}
