package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"verstore/internal/app"
	"verstore/internal/maintenance"
	"verstore/internal/vs"

	"github.com/spf13/cobra"
)

// upload command
var uploadCmd = &cobra.Command{
	Use:   "upload PROJECT PATH...",
	Short: "Upload files or directories to a project",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts app.UploadOptions
		opts.Name, _ = cmd.Flags().GetString("name")
		opts.Folder, _ = cmd.Flags().GetString("folder")
		opts.Update, _ = cmd.Flags().GetBool("update")
		opts.Promote, _ = cmd.Flags().GetBool("promote")
		opts.Recursive, _ = cmd.Flags().GetBool("recursive")

		return withApp(cmd, "Upload", args, func(ctx context.Context, a *app.VSApp) error {
			reports, err := a.Upload(ctx, args[0], args[1:], opts)
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range reports {
				switch {
				case r.Err != nil:
					failed++
					fmt.Printf("failed     %s: %v\n", r.Path, r.Err)
				case r.Unchanged:
					fmt.Printf("unchanged  %s\n", r.Path)
				case r.Result.Outcome == vs.OutcomeDuplicate && r.Result.Promoted:
					fmt.Printf("restored   %s as %s v%d\n", r.Path, r.Result.Name, r.Result.Version)
				case r.Result.Outcome == vs.OutcomeDuplicate:
					fmt.Printf("duplicate  %s of %s v%d\n", r.Path, r.Result.Name, r.Result.Version)
				default:
					fmt.Printf("stored     %s as %s v%d (%s)\n", r.Path, r.Result.Name, r.Result.Version, formatSize(r.Result.Size))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d upload(s) failed", failed, len(reports))
			}
			fmt.Printf("Processed %d file(s)\n", len(reports))
			return nil
		})
	},
}

// files command
var filesCmd = &cobra.Command{
	Use:   "files PROJECT",
	Short: "List the latest version of every file in a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "ListFiles", args, func(ctx context.Context, a *app.VSApp) error {
			files, err := a.Files(ctx, args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("No files.")
				return nil
			}
			for _, f := range files {
				fmt.Printf("%-20s  %-30s  v%-4d  %10s  %s\n",
					f.Folder,
					f.Name,
					f.Version,
					formatSize(f.Size),
					f.CreatedAt.Format("2006-01-02 15:04:05"),
				)
			}
			return nil
		})
	},
}

// log command
var logCmd = &cobra.Command{
	Use:   "log PROJECT NAME",
	Short: "View the versions of a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "FileHistory", args, func(ctx context.Context, a *app.VSApp) error {
			versions, err := a.History(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			for _, v := range versions {
				current := ""
				if v.IsLatest {
					current = "  [latest]"
				}
				fmt.Printf("v%-4d  %s  %s  %10s%s\n",
					v.Version,
					v.ContentHash[:12],
					v.CreatedAt.Format("2006-01-02 15:04:05"),
					formatSize(v.Size),
					current,
				)
			}
			return nil
		})
	},
}

// get command
var getCmd = &cobra.Command{
	Use:   "get PROJECT NAME [VERSION]",
	Short: "Write a file version to stdout or --output",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := versionArg(args)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")

		return withApp(cmd, "OpenVersion", args, func(ctx context.Context, a *app.VSApp) error {
			if err := unlock(a); err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			v, err := a.Get(ctx, args[0], args[1], version, w)
			if err != nil {
				if output != "" {
					os.Remove(output)
				}
				return err
			}
			if output != "" {
				fmt.Printf("Wrote %s v%d to %s\n", v.Name, v.Version, output)
			}
			return nil
		})
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm PROJECT NAME [VERSION]",
	Short: "Delete one version of a file (default: the latest)",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := versionArg(args)
		if err != nil {
			return err
		}
		return withApp(cmd, "DeleteFileVersion", args, func(ctx context.Context, a *app.VSApp) error {
			v, err := a.Remove(ctx, args[0], args[1], version)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %s v%d\n", v.Name, v.Version)
			return nil
		})
	},
}

// versionArg reads the optional VERSION argument. 0 means latest.
func versionArg(args []string) (int64, error) {
	if len(args) < 3 {
		return 0, nil
	}
	v, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid version %q", args[2])
	}
	return v, nil
}

// download command
var downloadCmd = &cobra.Command{
	Use:   "download PROJECT",
	Short: "Download the latest files of a project as a zip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = args[0] + ".zip"
		}

		return withApp(cmd, "ExportProject", args, func(ctx context.Context, a *app.VSApp) error {
			if err := unlock(a); err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating archive: %w", err)
			}
			n, err := a.Download(ctx, args[0], f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(output)
				return err
			}
			fmt.Printf("Wrote %d file(s) to %s\n", n, output)
			return nil
		})
	},
}

// activity command
var activityCmd = &cobra.Command{
	Use:   "activity [PROJECT]",
	Short: "View recent activity",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		project := ""
		if len(args) > 0 {
			project = args[0]
		}

		return withApp(cmd, "ListActivity", args, func(ctx context.Context, a *app.VSApp) error {
			entries, err := a.Activity(ctx, project, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No activity recorded.")
				return nil
			}
			for _, e := range entries {
				file := ""
				if e.FileName != "" {
					file = fmt.Sprintf("%s v%d", e.FileName, e.FileVersion)
				}
				fmt.Printf("%s  %-20s  %-25s  %s\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"),
					e.ProjectName,
					e.Action,
					file,
				)
			}
			return nil
		})
	},
}

// reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Remove metadata without blobs and blobs without metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		return withApp(cmd, "Reconcile", args, func(ctx context.Context, a *app.VSApp) error {
			report, err := a.Reconcile(ctx, dryRun)
			if err != nil {
				return err
			}

			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			for _, v := range report.MissingBlobs {
				fmt.Printf("missing blob  %s v%d (%s)\n", v.Name, v.Version, v.StorageKey)
			}
			for _, key := range report.OrphanKeys {
				fmt.Printf("orphan blob   %s\n", key)
			}
			fmt.Printf("Checked %d version(s). %s %d dangling version(s) and %d orphan blob(s)\n",
				report.Checked, verb, len(report.MissingBlobs), len(report.OrphanKeys))
			return nil
		})
	},
}

// maintain command
var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Run scheduled reconciliation until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "Maintain", args, func(ctx context.Context, a *app.VSApp) error {
			err := a.Maintain(ctx)
			if errors.Is(err, maintenance.ErrDisabled) {
				return fmt.Errorf("%w: set maintenance.reconcile_every in the config", err)
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().Bool("update", false, "Report unchanged files instead of duplicates")
	uploadCmd.Flags().String("name", "", "Logical file name (single file only)")
	uploadCmd.Flags().String("folder", "", "Folder for the uploaded files")
	uploadCmd.Flags().Bool("promote", false, "Make an identical older version the latest again")
	uploadCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")

	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringP("output", "o", "", "Archive path (default PROJECT.zip)")
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().IntP("limit", "n", 50, "Maximum number of entries to show")
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().Bool("dry-run", false, "Report without removing anything")
	rootCmd.AddCommand(maintainCmd)
}
