package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/Comcast/treetags/config"
	"github.com/Comcast/treetags/core"
	"github.com/Comcast/treetags/interpreters"
	"github.com/Comcast/treetags/storage"
	"github.com/Comcast/treetags/storage/bolt"
	"github.com/Comcast/treetags/storage/mem"
	"github.com/Comcast/treetags/tools"
	"github.com/Comcast/treetags/view"

	"github.com/jsccast/yaml"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	configFile string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "tagtool",
		Short:         "Build, analyze and document view templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "optional YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		a.buildCmd(),
		a.analyzeCmd(),
		a.dotCmd(),
		a.docCmd(),
		a.yamlToJSONCmd(),
		a.viewsCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if a.logger, err = cfg.Logger(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) template(ctx context.Context, filename string) (*core.Template, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	t, err := tools.ParseTemplate(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if t.Interpreter == "" {
		t.Interpreter = a.cfg.Interpreter
	}
	if err = t.Compile(ctx, interpreters.Standard(), nil); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}

func readBindings(filename string) (core.Bindings, error) {
	if filename == "" {
		return core.NewBindings(), nil
	}
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err = yaml.Unmarshal(bs, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return core.Bindings(m), nil
}

func writeJSON(w io.Writer, x interface{}, pretty bool) error {
	var (
		bs  []byte
		err error
	)
	if pretty {
		bs, err = json.MarshalIndent(x, "", "  ")
	} else {
		bs, err = json.Marshal(x)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", bs)
	return err
}

func (a *app) buildCmd() *cobra.Command {
	var (
		bindingsFile string
		dbFile       string
		viewId       string
		html         bool
		pretty       bool
	)
	cmd := &cobra.Command{
		Use:   "build TEMPLATE",
		Short: "Build a view",
		Long: `Builds a view from the template and the bindings.

With --db, the view state is kept in that bbolt file, so building the
same --view again restores and refreshes it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			t, err := a.template(ctx, args[0])
			if err != nil {
				return err
			}
			bs, err := readBindings(bindingsFile)
			if err != nil {
				return err
			}

			if dbFile == "" {
				dbFile = a.cfg.StorageFile
			}
			var s storage.Storage = mem.NewStorage()
			if dbFile != "" {
				db, err := bolt.NewStorage(dbFile)
				if err != nil {
					return err
				}
				db.Logger = a.logger
				if err = db.Open(ctx); err != nil {
					return err
				}
				defer db.Close(ctx)
				s = db
			}

			r := view.NewRenderer(t)
			r.Storage = s
			r.Flags = a.cfg.Flags(t)
			r.Logger = a.logger
			r.Prefix = a.cfg.IdPrefix

			res, err := r.Render(ctx, &view.Request{
				ViewId:   viewId,
				Bindings: bs,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if html {
				for _, c := range res.Tree.Children {
					if err = tools.RenderHTML(c, out); err != nil {
						return err
					}
				}
				_, err = fmt.Fprintln(out)
				return err
			}
			return writeJSON(out, res, pretty)
		},
	}
	cmd.Flags().StringVarP(&bindingsFile, "bindings", "b", "", "YAML or JSON file with the bindings")
	cmd.Flags().StringVar(&dbFile, "db", "", "bbolt file for view state")
	cmd.Flags().StringVar(&viewId, "view", "", "view id (new if empty)")
	cmd.Flags().BoolVar(&html, "html", false, "write HTML instead of JSON")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print JSON")
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze TEMPLATE",
		Short: "Report on a template's structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := ioutil.ReadFile(args[0])
			if err != nil {
				return err
			}
			t, err := tools.ParseTemplate(bs)
			if err != nil {
				return err
			}
			analysis, err := tools.Analyze(t)
			if err != nil {
				return err
			}
			if err = writeJSON(cmd.OutOrStdout(), analysis, true); err != nil {
				return err
			}
			if 0 < len(analysis.Errors) {
				return fmt.Errorf("%d problems", len(analysis.Errors))
			}
			return nil
		},
	}
}

func (a *app) dotCmd() *cobra.Command {
	var (
		highlight string
		png       string
	)
	cmd := &cobra.Command{
		Use:   "dot TEMPLATE",
		Short: "Write a Graphviz dot file for a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := ioutil.ReadFile(args[0])
			if err != nil {
				return err
			}
			t, err := tools.ParseTemplate(bs)
			if err != nil {
				return err
			}
			if png != "" {
				filename, err := tools.PNG(t, png, highlight)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), filename)
				return err
			}
			return tools.Dot(t, nopCloser{cmd.OutOrStdout()}, highlight)
		},
	}
	cmd.Flags().StringVar(&highlight, "highlight", "", "tag path (like 0.2.1) to draw in red")
	cmd.Flags().StringVar(&png, "png", "", "basename for .dot and .png files (needs Graphviz)")
	return cmd
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func (a *app) docCmd() *cobra.Command {
	var css []string
	cmd := &cobra.Command{
		Use:   "doc TEMPLATE",
		Short: "Write an HTML page documenting a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return tools.ReadAndRenderTemplatePage(args[0], css, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&css, "css", nil, "stylesheet URLs")
	return cmd
}

func (a *app) yamlToJSONCmd() *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "yamltojson",
		Short: "Convert a YAML template on stdin to JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := ioutil.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			t, err := tools.ParseTemplate(bs)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), t, pretty)
		},
	}
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print")
	return cmd
}
