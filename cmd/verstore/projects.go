package main

import (
	"context"
	"fmt"

	"verstore/internal/app"

	"github.com/spf13/cobra"
)

// owner command
var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Manage owners and storage limits",
}

var ownerAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create an owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limitFlag, _ := cmd.Flags().GetString("limit")
		limit := int64(-1)
		if limitFlag != "" {
			var err error
			if limit, err = parseSize(limitFlag); err != nil {
				return err
			}
		}

		return withApp(cmd, "AddOwner", args, func(ctx context.Context, a *app.VSApp) error {
			owner, err := a.AddOwner(ctx, args[0], limit)
			if err != nil {
				return err
			}
			fmt.Printf("Created owner %s (limit %s)\n", owner.Name, formatSize(owner.StorageLimitBytes))
			return nil
		})
	},
}

var ownerQuotaCmd = &cobra.Command{
	Use:   "quota [NAME]",
	Short: "Show storage usage against the limit",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		return withApp(cmd, "OwnerQuota", args, func(ctx context.Context, a *app.VSApp) error {
			account, err := a.OwnerQuota(ctx, name)
			if err != nil {
				return err
			}
			fmt.Printf("%s of %s used, %s remaining\n",
				formatSize(account.UsedBytes),
				formatSize(account.LimitBytes),
				formatSize(account.Remaining()),
			)
			return nil
		})
	},
}

var ownerLimitCmd = &cobra.Command{
	Use:   "limit NAME SIZE",
	Short: "Set an owner's storage limit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := parseSize(args[1])
		if err != nil {
			return err
		}
		return withApp(cmd, "SetOwnerLimit", args, func(ctx context.Context, a *app.VSApp) error {
			if err := a.SetOwnerLimit(ctx, args[0], limit); err != nil {
				return err
			}
			fmt.Printf("Storage limit of %s set to %s\n", args[0], formatSize(limit))
			return nil
		})
	},
}

// project command
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		private, _ := cmd.Flags().GetBool("private")

		return withApp(cmd, "CreateProject", args, func(ctx context.Context, a *app.VSApp) error {
			project, err := a.CreateProject(ctx, args[0], description, private)
			if err != nil {
				return err
			}
			fmt.Printf("Created project %s\n", project.Name)
			return nil
		})
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ListProjects", args, func(ctx context.Context, a *app.VSApp) error {
			projects, err := a.ListProjects(ctx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("No projects.")
				return nil
			}
			for _, p := range projects {
				visibility := "public "
				if p.IsPrivate {
					visibility = "private"
				}
				fmt.Printf("%-30s  %s  %s  %s\n", p.Name, visibility, p.CreatedAt.Format("2006-01-02 15:04:05"), p.Description)
			}
			return nil
		})
	},
}

var projectArchiveCmd = &cobra.Command{
	Use:   "archive NAME",
	Short: "Hide a project, keeping its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ArchiveProject", args, func(ctx context.Context, a *app.VSApp) error {
			if err := a.ArchiveProject(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Archived project %s\n", args[0])
			return nil
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a project and all of its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("deleting %s removes every stored version: pass --yes to confirm", args[0])
		}
		return withApp(cmd, "DeleteProject", args, func(ctx context.Context, a *app.VSApp) error {
			if err := a.DeleteProject(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted project %s\n", args[0])
			return nil
		})
	},
}

var projectUsageCmd = &cobra.Command{
	Use:   "usage NAME",
	Short: "Show bytes stored in a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ProjectUsage", args, func(ctx context.Context, a *app.VSApp) error {
			used, err := a.ProjectUsage(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", args[0], formatSize(used))
			return nil
		})
	},
}

var projectShareCmd = &cobra.Command{
	Use:   "share PROJECT OWNER ROLE",
	Short: "Grant an owner viewer, editor or admin access",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Share", args, func(ctx context.Context, a *app.VSApp) error {
			if err := a.Share(ctx, args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Printf("%s is now %s of %s\n", args[1], args[2], args[0])
			return nil
		})
	},
}

var projectUnshareCmd = &cobra.Command{
	Use:   "unshare PROJECT OWNER",
	Short: "Remove an owner's access",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Unshare", args, func(ctx context.Context, a *app.VSApp) error {
			if err := a.Unshare(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Removed %s from %s\n", args[1], args[0])
			return nil
		})
	},
}

func init() {
	// owner subcommands
	ownerCmd.AddCommand(ownerAddCmd)
	ownerCmd.AddCommand(ownerQuotaCmd)
	ownerCmd.AddCommand(ownerLimitCmd)
	ownerAddCmd.Flags().String("limit", "", "Storage limit such as 50MiB (default from config)")

	// project subcommands
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectArchiveCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(projectUsageCmd)
	projectCmd.AddCommand(projectShareCmd)
	projectCmd.AddCommand(projectUnshareCmd)
	projectCreateCmd.Flags().StringP("description", "d", "", "Project description")
	projectCreateCmd.Flags().Bool("private", false, "Only members can read the project")
	projectDeleteCmd.Flags().Bool("yes", false, "Confirm deletion")

	rootCmd.AddCommand(ownerCmd)
	rootCmd.AddCommand(projectCmd)
}
