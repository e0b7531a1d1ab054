package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/viewcounter/internal/app"
	"github.com/vadimbarashkov/viewcounter/internal/detect"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

// NewLookupCmd creates the lookup command.
func NewLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup [url...]",
		Short: "Print view counts as CSV",
		Long: `Lookup resolves the view count of every URL and prints url,platform,views
rows to stdout in input order.

Examples:
  viewcounter lookup https://youtu.be/dQw4w9WgXcQ https://t.me/durov/1
  viewcounter lookup --file links.txt
  cat links.txt | viewcounter lookup --file -`,
		Args: cobra.ArbitraryArgs,
		RunE: runLookupCmd,
	}

	cmd.Flags().StringP("file", "f", "", "Read URLs from a file, one per line (- for stdin)")
	cmd.Flags().BoolP("verbose", "v", false, "Log fetch failures to stderr")

	return cmd
}

func runLookupCmd(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	verbose, _ := cmd.Flags().GetBool("verbose")

	urls, err := readURLs(args, file, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no urls given: pass them as arguments or with --file")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	uc, cleanup, err := app.NewViewsUseCase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	lookups, err := uc.Lookup(ctx, urls)
	if err != nil {
		return err
	}

	return writeCSV(cmd.OutOrStdout(), lookups)
}

// readURLs collects URLs from args and from file. "-" reads stdin.
func readURLs(args []string, file string, stdin io.Reader) ([]string, error) {
	var urls []string

	for _, a := range args {
		urls = append(urls, detect.SplitLines(a)...)
	}

	if file == "" {
		return urls, nil
	}

	var r io.Reader = stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open url file: %w", err)
		}
		defer f.Close()
		r = f
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read urls: %w", err)
	}

	return urls, nil
}

func writeCSV(w io.Writer, lookups []entity.Lookup) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"url", "platform", "views"}); err != nil {
		return err
	}
	for _, l := range lookups {
		if err := cw.Write([]string{l.URL, l.Platform.Label(), l.ViewsText()}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
