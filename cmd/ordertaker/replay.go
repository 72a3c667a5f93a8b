package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nadzzz/ordertaker/internal/config"
	"github.com/nadzzz/ordertaker/internal/extract"
	"github.com/nadzzz/ordertaker/internal/locale"
	"github.com/nadzzz/ordertaker/internal/policy"
	"github.com/nadzzz/ordertaker/internal/session"
	"github.com/nadzzz/ordertaker/internal/transcript"
)

var (
	replayPack   string
	replayJSON   bool
	replayPacing string
	replayScope  string
	replayLevel  string
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Run a recorded call through the engine",
	Long: `Run a recorded call through the engine and print each reply.

One turn per line. A line may start with "customer:", "assistant:" or
"dtmf:"; unprefixed lines are customer turns. Blank lines and lines
starting with # are skipped. Use - to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	f := replayCmd.Flags()
	f.StringVar(&replayPack, "pack", "", "restaurant pack (default: embedded pt-PT pack)")
	f.BoolVar(&replayJSON, "json", false, "print the final payload as JSON instead of the summary")
	f.StringVar(&replayPacing, "pacing", "normal", "pacing: normal, concise, detailed, auto")
	f.StringVar(&replayScope, "modifier-scope", "all", "modifier attribution: all, latest")
	f.StringVar(&replayLevel, "log-level", "warn", "log level for engine logs on stderr")
}

func runReplay(cmd *cobra.Command, args []string) error {
	config.SetupLogging(config.LoggingConfig{Level: replayLevel, Format: "text"}, cmd.ErrOrStderr())

	pacing, err := policy.ParsePacing(replayPacing)
	if err != nil {
		return err
	}
	scope, err := extract.ParseScope(replayScope)
	if err != nil {
		return err
	}
	bundle, err := locale.Load(replayPack)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening transcript: %w", err)
		}
		defer f.Close()
		in = f
	}

	kit := session.NewKit(bundle, session.Options{Pacing: pacing, Scope: scope})
	return replay(in, cmd.OutOrStdout(), kit, replayJSON)
}

var (
	customerColor  = color.New(color.FgCyan)
	assistantColor = color.New(color.FgGreen)
	actionColor    = color.New(color.FgYellow)
	summaryColor   = color.New(color.FgMagenta, color.Bold)
)

// replay feeds every line of r to a fresh session and writes the
// conversation to w.
func replay(r io.Reader, w io.Writer, kit *session.Kit, asJSON bool) error {
	s, err := kit.Open("replay-" + kit.Now().Format("20060102T150405"))
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		prefix, rest, found := strings.Cut(text, ":")
		role := strings.ToLower(strings.TrimSpace(prefix))
		if !found || (role != "customer" && role != "assistant" && role != "dtmf") {
			role, rest = "customer", text
		}
		rest = strings.TrimSpace(rest)

		var a policy.Action
		switch role {
		case "dtmf":
			customerColor.Fprintf(w, "[dtmf %s]\n", rest)
			a = s.HandleDigits(rest)
		case "assistant":
			assistantColor.Fprintf(w, "assistant> %s\n", rest)
			s.HandleUtterance(rest, transcript.Assistant)
			continue
		default:
			customerColor.Fprintf(w, "customer>  %s\n", rest)
			a = s.HandleUtterance(rest, transcript.Customer)
		}

		actionColor.Fprintf(w, "  [%s]", a.Kind)
		if a.Text != "" {
			assistantColor.Fprintf(w, " %s", a.Text)
		}
		fmt.Fprintln(w)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading transcript line %d: %w", line, err)
	}

	p := s.Payload()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	fmt.Fprintln(w)
	summaryColor.Fprintln(w, p.OrderSummary)
	fmt.Fprintf(w, "phase: %s, turns: %d, at: %s\n", s.Phase(), len(p.Transcript), kit.Now().Format(time.RFC3339))
	return nil
}
