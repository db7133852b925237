package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dfryer1193/journal/api"
	"github.com/dfryer1193/journal/blog/application"
	"github.com/dfryer1193/journal/blog/domain"
	"github.com/dfryer1193/journal/internal/config"
	"github.com/spf13/cobra"
)

// withApp opens the journal for the length of one command. Sign-in, when a
// command needs it, prompts on the terminal.
func withApp(cmd *cobra.Command, cfg config.Config, fn func(a *app) error) error {
	a, err := openApp(cfg, terminalPrompter(cmd))
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newListCmd(cfg func() config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg(), func(a *app) error {
				posts := a.sync.GetAllPosts(cmd.Context())

				if asJSON {
					summaries := make([]api.PostSummary, 0, len(posts))
					for _, p := range posts {
						summaries = append(summaries, api.Summarize(p))
					}
					return writeJSON(cmd.OutOrStdout(), summaries)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DATE\tSLUG\tTITLE")
				for _, p := range posts {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Date, p.Slug, p.Title)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print summaries as JSON")
	return cmd
}

func newShowCmd(cfg func() config.Config) *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Print a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg(), func(a *app) error {
				post, ok := a.sync.GetPostBySlug(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("%w: post %q", domain.ErrNotFound, args[0])
				}

				if !asHTML {
					return writeJSON(cmd.OutOrStdout(), post)
				}
				html, err := application.NewMarkdownRenderer().Render(post)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(html)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Render the post as HTML")
	return cmd
}

func newAddCmd(cfg func() config.Config) *cobra.Command {
	var (
		file  string
		title string
		tags  []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a post, replacing any post with the same slug",
		Long: `Add a post read as JSON from a file, or from stdin when the file is "-".

The JSON holds the title, content blocks and optionally slug, date, excerpt
and tags. Missing fields are derived the way the editor derives them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			proto := api.PostProto{}
			if err := json.NewDecoder(in).Decode(&proto); err != nil {
				return fmt.Errorf("%w: %w", domain.ErrValidation, err)
			}
			if title != "" {
				proto.Title = title
			}
			if len(tags) > 0 {
				proto.Tags = tags
			}

			post := proto.ToDomain(time.Now())
			if !post.Complete() {
				return fmt.Errorf("%w: post needs a slug, a title and some content", domain.ErrValidation)
			}

			return withApp(cmd, cfg(), func(a *app) error {
				if err := a.sync.AddPost(cmd.Context(), post); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", post.Slug)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Post JSON file")
	cmd.Flags().StringVar(&title, "title", "", "Post title, overrides the file")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Post tag, repeatable; overrides the file")
	return cmd
}

func newClearCmd(cfg func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the locally stored posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, cfg(), func(a *app) error {
				if err := a.sync.ClearLocal(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared local posts")
				return nil
			})
		},
	}
}
