package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"formassist-backend/internal/conversation"
	"formassist-backend/internal/export"
	"formassist-backend/internal/models"
)

const chatHelp = `Type a message to ask the assistant, or a command:
  /new [title]          start a conversation
  /list                 list conversations
  /switch <n|id>        switch conversation
  /delete <n|id>        delete a conversation
  /preview [ts]         preview a reply's field values
  /copy [ts]            copy a reply's field values as JSON
  /apply [ts]           write a reply's values into the page copy
  /export <fmt> [file]  export the conversation (json, yaml, md)
  /context              show the page context sent with messages
  /quit                 leave`

func newOpenCmd(rt *runtime) *cobra.Command {
	var (
		outPath  string
		messages []string
	)
	cmd := &cobra.Command{
		Use:   "open <url|file>",
		Short: "Open a page and chat about its form",
		Long: `Open fetches the page (or reads a local HTML file), reports whether it opted
in through X-AI-Assist, and starts an interactive chat. Applied replies are
written to a filled copy of the page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			page := loadPage(ctx, args[0], out, rt.log)
			renderer := newTermRenderer(out)
			m := rt.core.NewManager(rt.scope, renderer)
			defer m.Close()

			s := &chatSession{
				out:      out,
				manager:  m,
				renderer: renderer,
				page:     page,
				outPath:  outPath,
				clip:     systemClipboard{},
			}
			if len(messages) > 0 {
				for _, line := range messages {
					if quit, err := s.handle(ctx, line); err != nil || quit {
						return err
					}
				}
				return nil
			}
			fmt.Fprintf(out, "%s\n%s\n", titleStyle.Render(page.Context.Title), metaStyle.Render("/help for commands"))
			return s.loop(ctx, rt.in)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "filled.html", "where /apply writes the filled page")
	cmd.Flags().StringArrayVarP(&messages, "message", "m", nil, "run these lines instead of reading stdin (repeatable)")
	return cmd
}

// chatSession executes chat lines against one manager and page.
type chatSession struct {
	out      io.Writer
	manager  *conversation.Manager
	renderer *termRenderer
	page     *loadedPage
	outPath  string
	clip     conversation.Clipboard
}

func (s *chatSession) loop(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(s.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		quit, err := s.handle(ctx, sc.Text())
		if err != nil {
			fmt.Fprintln(s.out, errorStyle.Render(err.Error()))
		}
		if quit {
			return nil
		}
	}
}

var errNoReply = errors.New("no reply with field data")

// handle runs one line. Command errors are reported, not fatal.
func (s *chatSession) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		s.manager.Send(ctx, line, s.page)
		return false, nil
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "quit", "exit", "q":
		return true, nil
	case "help", "h":
		fmt.Fprintln(s.out, chatHelp)
	case "new":
		s.manager.Create(arg)
	case "list", "ls":
		s.printList()
	case "switch":
		id, err := s.resolveConversation(arg)
		if err != nil {
			return false, err
		}
		s.renderer.reset()
		s.manager.SetActive(id)
	case "delete", "rm":
		id, err := s.resolveConversation(arg)
		if err != nil {
			return false, err
		}
		s.manager.Delete(id)
	case "preview":
		ts, err := s.resolveReply(arg)
		if err != nil {
			return false, err
		}
		text, _ := s.manager.Preview(ts)
		fmt.Fprintln(s.out, dataStyle.Render(text))
	case "copy":
		ts, err := s.resolveReply(arg)
		if err != nil {
			return false, err
		}
		if err := s.manager.CopyToClipboard(ctx, ts, s.clip); err != nil {
			return false, fmt.Errorf("copy failed: %w", err)
		}
	case "apply":
		ts, err := s.resolveReply(arg)
		if err != nil {
			return false, err
		}
		return false, s.apply(ts)
	case "export":
		return false, s.export(arg)
	case "context":
		pc, _ := s.page.PageContext(ctx)
		raw, _ := json.MarshalIndent(pc, "", "  ")
		fmt.Fprintln(s.out, string(raw))
	default:
		return false, fmt.Errorf("unknown command /%s (try /help)", name)
	}
	return false, nil
}

func (s *chatSession) printList() {
	list := s.manager.Conversations()
	if len(list) == 0 {
		fmt.Fprintln(s.out, metaStyle.Render("No conversations yet"))
		return
	}
	for i, c := range list {
		marker := " "
		if c.Active {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s %d. %s %s\n", marker, i+1, c.Title, metaStyle.Render(c.ID))
	}
}

// resolveConversation accepts a 1-based position in /list or an id.
func (s *chatSession) resolveConversation(arg string) (string, error) {
	if arg == "" {
		return "", errors.New("which conversation? give its number from /list or its id")
	}
	list := s.manager.Conversations()
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(list) {
			return "", fmt.Errorf("no conversation #%d", n)
		}
		return list[n-1].ID, nil
	}
	for _, c := range list {
		if c.ID == arg {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("no conversation %q", arg)
}

// resolveReply parses ts or picks the latest reply carrying field data.
func (s *chatSession) resolveReply(arg string) (int64, error) {
	if arg != "" {
		ts, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid message timestamp %q", arg)
		}
		return ts, nil
	}
	active := s.manager.Active()
	if active == nil {
		return 0, errNoReply
	}
	for i := len(active.Messages) - 1; i >= 0; i-- {
		if msg := active.Messages[i]; msg.Sender == models.SenderAI && len(msg.JSONData) > 0 {
			return msg.Timestamp, nil
		}
	}
	return 0, errNoReply
}

func (s *chatSession) apply(ts int64) error {
	report, ok := s.manager.ApplyToPage(ts, s.page.Page())
	if !ok {
		if s.page.Doc == nil {
			return errors.New("the page could not be read, nothing to apply to")
		}
		return errNoReply
	}
	html, err := s.page.Doc.HTML()
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	if err := os.WriteFile(s.outPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.outPath, err)
	}
	fmt.Fprintf(s.out, "Applied %d field(s) to %s\n", len(report.Applied), s.outPath)
	if len(report.Skipped) > 0 {
		fmt.Fprintln(s.out, metaStyle.Render("No element for: "+strings.Join(report.Skipped, ", ")))
	}
	return nil
}

func (s *chatSession) export(arg string) error {
	format, path, _ := strings.Cut(arg, " ")
	exp, err := export.NewExporter(format)
	if err != nil {
		return err
	}
	active := s.manager.Active()
	if active == nil {
		return errors.New("no active conversation")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return exp.Export(active, s.out)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := exp.Export(active, f); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Exported to %s\n", path)
	return nil
}
