package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/huangang/reportportal/internal/models"
	"github.com/huangang/reportportal/internal/reportweek"
	"github.com/huangang/reportportal/internal/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Manage report weeks",
}

var weekPeriodCmd = &cobra.Command{
	Use:   "period [friday]",
	Short: "Show the Monday-Friday bounds of a week in a timezone",
	Long:  "Computes the period without touching the database.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		zone, _ := cmd.Flags().GetString("timezone")

		friday, err := reportweek.ParseFriday(args[0])
		if err != nil {
			return err
		}
		loc, err := reportweek.LoadZone(zone)
		if err != nil {
			return err
		}
		period := reportweek.PeriodFor(friday, loc)

		fmt.Printf("Week ending %s in %s\n", idColor.Sprint(friday), zone)
		fmt.Printf("  start  %s  (local %s, offset %d min)\n",
			period.Start.Format(time.RFC3339), period.Start.In(loc).Format("Mon 2006-01-02 15:04:05 MST"), reportweek.OffsetMinutes(loc, period.Start))
		fmt.Printf("  end    %s  (local %s, offset %d min)\n",
			period.End.Format(time.RFC3339), period.End.In(loc).Format("Mon 2006-01-02 15:04:05 MST"), reportweek.OffsetMinutes(loc, period.End))
		return nil
	},
}

var weekCreateCmd = &cobra.Command{
	Use:   "create [friday]",
	Short: "Create a draft report week",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, _ := cmd.Flags().GetUint("tenant")

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		week, err := e.reportWeeks().Create(context.Background(), tenantID, args[0])
		if err != nil {
			return err
		}
		okColor.Print("✓ Created ")
		printWeek(week)
		return nil
	},
}

var weekListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a tenant's report weeks, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, _ := cmd.Flags().GetUint("tenant")
		status, _ := cmd.Flags().GetString("status")
		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		resp, err := e.reportWeeks().List(context.Background(), tenantID, &services.ReportWeekListRequest{
			Status:   status,
			Year:     year,
			Month:    month,
			Page:     page,
			PageSize: pageSize,
		})
		if err != nil {
			return err
		}
		if resp.Total == 0 {
			dimColor.Println("No report weeks.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWEEK ENDING\tSTATUS\tSTART (UTC)\tEND (UTC)\tPUBLISHED")
		for i := range resp.Items {
			week := &resp.Items[i]
			published := "-"
			if week.PublishedAt != nil {
				published = week.PublishedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				idColor.Sprint(week.ID), week.WeekEndingDate, statusText(week.Status),
				week.PeriodStartAt.UTC().Format(time.RFC3339), week.PeriodEndAt.UTC().Format(time.RFC3339), published)
		}
		w.Flush()
		dimColor.Printf("page %d, %d of %d\n", resp.Page, len(resp.Items), resp.Total)
		return nil
	},
}

func statusCommand(use, short string, target reportweek.Status) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, _ := cmd.Flags().GetUint("tenant")
			actorID, _ := cmd.Flags().GetUint("actor")

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if _, err := resolveActor(e.db, actorID); err != nil {
				return err
			}

			status := string(target)
			week, err := e.reportWeeks().Update(context.Background(), tenantID, args[0], &services.UpdateReportWeekRequest{Status: &status}, actorID)
			if err != nil {
				return err
			}
			okColor.Printf("✓ %s ", use)
			printWeek(week)
			return nil
		},
	}
	tenantFlag(cmd)
	cmd.Flags().Uint("actor", 0, "user id recorded as the publisher")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

var weekDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a draft report week",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, _ := cmd.Flags().GetUint("tenant")

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.reportWeeks().Delete(context.Background(), tenantID, args[0]); err != nil {
			return err
		}
		okColor.Printf("✓ Deleted %s\n", args[0])
		return nil
	},
}

// resolveActor loads the active user recorded as publisher.
func resolveActor(db *gorm.DB, id uint) (*models.User, error) {
	if id == 0 {
		return nil, errors.New("--actor must be a user id")
	}
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d not found", id)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("user %d is disabled", id)
	}
	return &user, nil
}

func printWeek(week *models.ReportWeek) {
	idColor.Print(week.ID)
	fmt.Printf(" week ending %s [%s] %s .. %s\n",
		week.WeekEndingDate, statusText(week.Status),
		week.PeriodStartAt.UTC().Format(time.RFC3339), week.PeriodEndAt.UTC().Format(time.RFC3339))
}

func statusText(s reportweek.Status) string {
	if s == reportweek.StatusPublished {
		return okColor.Sprint(s)
	}
	return dimColor.Sprint(s)
}

func tenantFlag(cmd *cobra.Command) {
	cmd.Flags().Uint("tenant", 0, "tenant id")
	_ = cmd.MarkFlagRequired("tenant")
}

func init() {
	weekPeriodCmd.Flags().String("timezone", "UTC", "IANA timezone")

	tenantFlag(weekCreateCmd)
	tenantFlag(weekListCmd)
	tenantFlag(weekDeleteCmd)

	weekListCmd.Flags().String("status", "", "draft or published")
	weekListCmd.Flags().Int("year", 0, "week-ending year")
	weekListCmd.Flags().Int("month", 0, "week-ending month (needs --year)")
	weekListCmd.Flags().Int("page", 1, "page number")
	weekListCmd.Flags().Int("page-size", 0, "page size (defaults to portal.default_page_size)")

	weekCmd.AddCommand(
		weekPeriodCmd,
		weekCreateCmd,
		weekListCmd,
		statusCommand("publish", "Publish a draft report week", reportweek.StatusPublished),
		statusCommand("unpublish", "Return a published report week to draft", reportweek.StatusDraft),
		weekDeleteCmd,
	)
}
