package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/publish"
	"github.com/vango-dev/docsave/pkg/snapshot"
)

func htmlCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "html [file]",
		Short: "Save a document as HTML5",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, nil)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			s, err := a.exporter.HTML(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, s)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	return cmd
}

func xhtmlCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "xhtml [file]",
		Short: "Save a document as XHTML5",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, nil)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			s, err := a.exporter.XHTML(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, s)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	return cmd
}

func diffCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "diff [file]",
		Short: "Write the form page that diffs a document against its previous version",
		Long: `Write an HTML page that, opened in a browser, posts the HTML5 snapshot
to the configured diff service together with the previous version.

Requires diff.previousURI or diff.previousDiffURI in docsave.json.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, nil)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			s, err := a.exporter.DiffPage(cmd.Context(), doc, flags.location)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, s)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	return cmd
}

func epubCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "epub",
		Short: "Print the EPUB conversion link for a published document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.location == "" {
				return errors.New("E004").WithSubject("--url")
			}
			a, err := newApp(cmd, flags, nil)
			if err != nil {
				return err
			}
			return writeOutput(cmd, "", a.exporter.EPubURL(flags.location)+"\n")
		},
	}
}

// artifactKinds maps --only values to artifact IDs.
var artifactKinds = map[string]string{
	"html":  snapshot.IDHTML,
	"xhtml": snapshot.IDXHTML,
	"epub":  snapshot.IDEPub,
	"diff":  snapshot.IDDiff,
}

// parseKinds resolves --only values to artifact IDs. A nil result keeps
// every artifact.
func parseKinds(only []string) (map[string]bool, error) {
	if len(only) == 0 {
		return nil, nil
	}
	keep := make(map[string]bool, len(only))
	for _, kind := range only {
		id, ok := artifactKinds[strings.ToLower(strings.TrimSpace(kind))]
		if !ok {
			return nil, errors.New("E060").WithSubject(kind).
				WithSuggestion("Use one of: html, xhtml, epub, diff")
		}
		keep[id] = true
	}
	return keep, nil
}

// filterArtifacts keeps the artifacts whose ID is in keep (all when keep
// is nil).
func filterArtifacts(arts []snapshot.Artifact, keep map[string]bool) []snapshot.Artifact {
	if keep == nil {
		return arts
	}
	var out []snapshot.Artifact
	for _, a := range arts {
		if keep[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func saveCmd(flags *globalFlags) *cobra.Command {
	var (
		dir  string
		only []string
		menu bool
	)

	cmd := &cobra.Command{
		Use:   "save [file]",
		Short: "Write every snapshot format to a directory or S3",
		Long: `Write the HTML5, XHTML5 and (when configured) diff snapshots of a
document to publish.output, or upload them when publish.s3.bucket is set.

Examples:
  docsave save index.html
  docsave save --url https://example.org/TR/spec/ --only html,xhtml index.html
  docsave save --dir out --menu < index.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, err := parseKinds(only)
			if err != nil {
				return err
			}
			a, err := newApp(cmd, flags, nil)
			if err != nil {
				return err
			}
			doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}

			arts, err := a.exporter.Artifacts(cmd.Context(), doc, flags.location)
			if err != nil {
				return err
			}
			arts = filterArtifacts(arts, keep)
			if menu {
				arts = append(arts, snapshot.Artifact{
					ID:       "respec-save-menu",
					FileName: "menu.html",
					Type:     "text/html",
					Body:     []byte(snapshot.Menu(arts)),
				})
			}

			store, err := openStore(cmd.Context(), a.cfg, dir)
			if err != nil {
				return err
			}
			results, err := publish.All(cmd.Context(), store, arts)
			for _, r := range results {
				success(cmd.OutOrStdout(), "%s → %s", r.FileName, r.Location)
			}
			if err != nil {
				return err
			}
			for _, art := range arts {
				if art.ID == snapshot.IDEPub {
					info(cmd.OutOrStdout(), "EPUB: %s", art.URL)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (default from docsave.json)")
	cmd.Flags().StringSliceVar(&only, "only", nil, "Artifacts to save: html, xhtml, epub, diff")
	cmd.Flags().BoolVar(&menu, "menu", false, "Also write menu.html with the download links")
	return cmd
}
