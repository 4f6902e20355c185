package main

import (
	"fmt"
	"os"
	"path/filepath"

	importapp "github.com/advisory/backoffice/internal/application/import"
	"github.com/advisory/backoffice/internal/bootstrap"
	"github.com/advisory/backoffice/internal/infrastructure/auth"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy data out of the legacy databases and spreadsheets",
	}

	miniCRM := &cobra.Command{
		Use:   "mini-crm",
		Short: "Migrate clients, snapshots and notes from the mini CRM database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.container.Migration.MigrateMiniCRM(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	justification := &cobra.Command{
		Use:   "justification",
		Short: "Migrate clients, products and forms from the justification database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.container.Migration.MigrateJustification(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	justificationClients := &cobra.Command{
		Use:   "justification-clients",
		Short: "Create or back-fill clients from the justification database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.container.Migration.MigrateJustificationClients(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	var legacyFile string
	legacyClients := &cobra.Command{
		Use:   "legacy-clients",
		Short: "Back-fill client details from Clients.xlsx",
		Long:  "Fills empty client fields from the spreadsheet. Without --file the configured legacy path is read.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var upload *importapp.Upload
			if legacyFile != "" {
				u, err := readUpload(legacyFile)
				if err != nil {
					return err
				}
				upload = u
			}
			result, err := a.container.LegacyClientsImport.ImportLegacyClients(cmd.Context(), upload)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	legacyClients.Flags().StringVar(&legacyFile, "file", "", "Clients.xlsx to read")

	cmd.AddCommand(miniCRM, justification, justificationClients, legacyClients)
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import provider reports and the market fund table",
	}

	var crmFile, month, company string
	crm := &cobra.Command{
		Use:   "crm",
		Short: "Import a provider balance report (.xlsx or .csv) as monthly snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, err := readUpload(crmFile)
			if err != nil {
				return err
			}
			result, err := a.container.CRMImport.ImportCRM(cmd.Context(), importapp.CRMImportInput{
				Filename:      upload.Filename,
				Data:          upload.Data,
				SnapshotMonth: month,
				CompanyCode:   company,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	crm.Flags().StringVar(&crmFile, "file", "", "Report to import")
	crm.Flags().StringVar(&month, "month", "", "Snapshot month, YYYY-MM")
	crm.Flags().StringVar(&company, "company", "", "Provider code (inferred from the file name when empty)")
	_ = crm.MarkFlagRequired("file")
	_ = crm.MarkFlagRequired("month")

	var xmlFile string
	gemelnet := &cobra.Command{
		Use:   "gemelnet",
		Short: "Import the Gemel-net XML export into the market fund table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, err := readUpload(xmlFile)
			if err != nil {
				return err
			}
			result, err := a.container.GemelnetImport.ImportGemelnet(cmd.Context(), upload.Data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	gemelnet.Flags().StringVar(&xmlFile, "file", "", "XML export to import")
	_ = gemelnet.MarkFlagRequired("file")

	cmd.AddCommand(crm, gemelnet)
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:         "token",
		Short:       "Print an administrator access token",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoDatabase: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = a.cfg.Admin.Username
			}
			token, err := auth.NewJWTService(a.cfg.JWT).GenerateAccessToken(username)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return err
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Subject of the token (default: the configured admin)")
	return cmd
}

func newJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run the daily background jobs by hand",
	}

	run := &cobra.Command{
		Use:   "run [job...]",
		Short: "Run the named jobs once, or every job when none are named",
		Long:  "Jobs: " + bootstrap.JobReminderDigest + ", " + bootstrap.JobSummaryWarmup,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs := a.container.NewJobs()
			if len(args) == 0 {
				args = jobs.Scheduler.Names()
			}
			for _, name := range args {
				if err := jobs.Scheduler.RunNow(cmd.Context(), name); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name, "ok"); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.AddCommand(run)
	return cmd
}

func readUpload(path string) (*importapp.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &importapp.Upload{Filename: filepath.Base(path), Data: data}, nil
}
