package main

import (
	"context"
	"fmt"

	"github.com/huangang/reportportal/internal/services"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		role, _ := cmd.Flags().GetString("role")
		email, _ := cmd.Flags().GetString("email")
		tenantID, _ := cmd.Flags().GetUint("tenant")

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		req := &services.CreateUserRequest{
			Username: args[0],
			Password: password,
			Email:    email,
			Role:     role,
		}
		if tenantID != 0 {
			req.TenantID = &tenantID
		}

		user, err := services.NewAuthService(e.db, &e.cfg.JWT).CreateUser(context.Background(), req)
		if err != nil {
			return err
		}

		okColor.Printf("✓ Created %s ", user.Role)
		idColor.Printf("#%d", user.ID)
		fmt.Printf(" %s", user.Username)
		if user.TenantID != nil {
			fmt.Printf(" in tenant %d", *user.TenantID)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	userCreateCmd.Flags().String("password", "", "initial password (min 6 characters)")
	userCreateCmd.Flags().String("role", "operator", "admin, operator or viewer")
	userCreateCmd.Flags().String("email", "", "email address")
	userCreateCmd.Flags().Uint("tenant", 0, "tenant id (required unless role is admin)")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}
