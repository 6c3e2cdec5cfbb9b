package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/leapstack-labs/leapquery/internal/cli/output"
	"github.com/leapstack-labs/leapquery/internal/editor"
	"github.com/leapstack-labs/leapquery/internal/remote"
	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/spf13/cobra"
)

// editFlags are the edits shared by create and edit.
type editFlags struct {
	name        string
	set         []string
	optionsFile string
	run         bool
	preview     bool
	dryRun      bool
}

func (f *editFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Query name")
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "Set an option (key=value, value parsed as JSON when possible)")
	cmd.Flags().StringVar(&f.optionsFile, "options", "", "JSON file with options to merge (- for stdin)")
	cmd.Flags().BoolVar(&f.run, "run", false, "Choose the run-after-save action (remembered)")
	cmd.Flags().BoolVar(&f.preview, "preview", false, "Preview the query before saving")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Apply the edits without saving")
}

// session is one editor bound to the configured query service.
type session struct {
	c      *CommandContext
	client *remote.Client
	host   *terminalHost
	editor *editor.Editor
	close  func()
}

func newSession(ctx context.Context, c *CommandContext) (*session, error) {
	p, cleanup, err := c.Preferences(ctx)
	if err != nil {
		return nil, err
	}

	client := c.Client()
	host := newTerminalHost(c.Renderer, c.Logger)
	ed, err := editor.New(editor.Config{
		Preferences: p,
		Host:        host,
		Service:     client,
		Notifier:    c.Renderer,
		Previewer:   client,
		Logger:      c.Logger,
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	return &session{c: c, client: client, host: host, editor: ed, close: cleanup}, nil
}

// applyEdits forwards the flag edits to the editor in the order a user would
// make them: options first, then the name.
func (s *session) applyEdits(cmd *cobra.Command, f *editFlags) error {
	if f.optionsFile != "" {
		opts, err := readOptions(cmd.InOrStdin(), f.optionsFile)
		if err != nil {
			return err
		}
		s.editor.SetOptions(opts)
	}

	for _, assignment := range f.set {
		key, value, err := parseAssignment(assignment)
		if err != nil {
			return err
		}
		s.editor.SetOption(key, value)
	}

	if cmd.Flags().Changed("name") {
		s.editor.SetQueryName(f.name)
	}

	if cmd.Flags().Changed("run") {
		for _, action := range s.editor.ButtonActions() {
			if action.AlsoRun == f.run {
				if err := s.editor.SetButtonAction(cmd.Context(), action.Label, action.AlsoRun); err != nil {
					return err
				}
			}
		}
	}

	if f.preview || f.dryRun {
		if err := s.editor.Preview(cmd.Context()); err != nil {
			return err
		}
	}
	return nil
}

// printPreview writes the preview result, if any.
func (s *session) printPreview() error {
	data := s.editor.State().PreviewData
	if data == nil {
		return nil
	}
	r := s.c.Renderer
	if !s.c.JSONOutput() {
		r.Header("Preview")
	}
	return r.JSON(data)
}

// settle hands the refreshed query list and selection back to the editor,
// as a host does after a save, so a save-and-run submission can run.
func (s *session) settle(ctx context.Context, saved *core.Query, source *core.DataSource) error {
	if s.editor.State().Pending == nil || saved == nil {
		return nil
	}
	list, err := s.client.List(ctx, saved.VersionID)
	if err != nil {
		return err
	}
	s.editor.Apply(editor.Props{
		AppID:              saved.AppID,
		EditingVersionID:   saved.VersionID,
		Mode:               core.ModeEdit,
		DataSources:        s.c.Cfg.Sources,
		DataQueries:        list,
		SelectedQuery:      saved,
		SelectedDataSource: source,
		IsSourceSelected:   true,
		EditingQuery:       true,
	})
	return nil
}

// printQuery writes a saved query.
func (s *session) printQuery(q *core.Query) error {
	r := s.c.Renderer
	if s.c.JSONOutput() {
		return r.JSON(q)
	}
	r.Println(formatQuery(q))
	return nil
}

func formatQuery(q *core.Query) string {
	source := q.DataSourceID
	if source == "" {
		source = "-"
	}
	lines := []string{
		output.FormatKeyValue("ID", q.ID),
		output.FormatKeyValue("Name", q.Name),
		output.FormatKeyValue("Kind", q.Kind),
		output.FormatKeyValue("Data source", source),
	}
	return strings.Join(lines, "\n")
}

// parseAssignment splits key=value. Values that parse as JSON are decoded so
// numbers, booleans and objects keep their type.
func parseAssignment(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid option %q, expected key=value", s)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return key, v, nil
	}
	return key, raw, nil
}

func readOptions(stdin io.Reader, path string) (core.Options, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}
	var opts core.Options
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	return opts, nil
}
