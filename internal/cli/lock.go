package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/hongjr03/tinymist/internal/lockdb"

	"github.com/spf13/cobra"
)

func NewLockCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect and index project lock files",
	}
	cmd.AddCommand(newLockIndexCommand(rootOpts))
	cmd.AddCommand(newLockShowCommand(rootOpts))
	return cmd
}

type indexResult struct {
	Index     string `json:"index"`
	Documents int    `json:"documents"`
	Routes    int    `json:"routes"`
}

func newLockIndexCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index <dir>",
		Short: "Build " + lockdb.LockIndexName + " from " + lockdb.LockFileName,
		Long: `Read the lock file of a project directory and write it into a SQLite
index next to it. The server prefers the index when both exist.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			lock, err := lockdb.ReadTOML(filepath.Join(dir, lockdb.LockFileName))
			if err != nil {
				return err
			}
			index := filepath.Join(dir, lockdb.LockIndexName)
			if err := lockdb.WriteSQLite(index, lock); err != nil {
				return err
			}

			res := indexResult{Index: index, Documents: len(lock.Documents), Routes: len(lock.Routes)}
			return output(cmd.OutOrStdout(), rootOpts, res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "indexed %d documents and %d routes into %s\n", res.Documents, res.Routes, res.Index)
				return err
			})
		},
	}
}

type showResult struct {
	LockDir string `json:"lockDir"`
	Project string `json:"project"`
	Root    string `json:"root,omitempty"`
	Main    string `json:"main,omitempty"`
}

func newLockShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "show <path>",
		Short:        "Print the project a file belongs to",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			res, err := showProject(lockdb.NewDatabase(), path)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), rootOpts, res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "lock:    %s\nproject: %s\nroot:    %s\nmain:    %s\n",
					res.LockDir, res.Project, res.Root, res.Main)
				return err
			})
		},
	}
}

func showProject(db *lockdb.Database, path string) (showResult, error) {
	res, err := db.Resolve(path)
	if err != nil {
		return showResult{}, err
	}
	lock, err := db.Locate(res)
	if err != nil {
		return showResult{}, err
	}
	record, ok := lock.Document(res.ProjectID)
	if !ok {
		return showResult{}, fmt.Errorf("%w: project %s has no record", lockdb.ErrMalformedLock, res.ProjectID)
	}

	out := showResult{LockDir: res.LockDir, Project: res.ProjectID}
	out.Root, _ = lockdb.ToAbsPath(record.Root, res.LockDir)
	out.Main, _ = lockdb.ToAbsPath(record.Main, res.LockDir)
	return out, nil
}
