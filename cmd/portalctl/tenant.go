package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/huangang/reportportal/internal/services"
	"github.com/spf13/cobra"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create [slug]",
	Short: "Create a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		zone, _ := cmd.Flags().GetString("timezone")
		country, _ := cmd.Flags().GetString("country")
		if name == "" {
			name = args[0]
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		tenant, err := e.tenants.Create(context.Background(), &services.CreateTenantRequest{
			Name:     name,
			Slug:     args[0],
			Timezone: zone,
			Country:  country,
		})
		if err != nil {
			return err
		}

		okColor.Printf("✓ Created tenant %s ", tenant.Slug)
		idColor.Printf("#%d", tenant.ID)
		fmt.Printf(" (%s, holidays %s)\n", tenant.Timezone, tenant.Country)
		return nil
	},
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		resp, err := e.tenants.List(context.Background(), 1, e.cfg.Portal.MaxPageSize)
		if err != nil {
			return err
		}
		if resp.Total == 0 {
			dimColor.Println("No tenants.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSLUG\tNAME\tTIMEZONE\tCOUNTRY\tACTIVE")
		for _, t := range resp.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", idColor.Sprint(t.ID), t.Slug, t.Name, t.Timezone, t.Country, t.IsActive)
		}
		w.Flush()
		if resp.Total > int64(len(resp.Items)) {
			dimColor.Printf("(%d of %d shown)\n", len(resp.Items), resp.Total)
		}
		return nil
	},
}

func init() {
	tenantCreateCmd.Flags().String("name", "", "display name (defaults to the slug)")
	tenantCreateCmd.Flags().String("timezone", "", "IANA timezone (defaults to portal.default_timezone)")
	tenantCreateCmd.Flags().String("country", "", "holiday calendar code, NONE for weekdays only")

	tenantCmd.AddCommand(tenantCreateCmd, tenantListCmd)
}
