package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/goliatone/go-feishu2md/cmd/internal/bootstrap"
	documentscmd "github.com/goliatone/go-feishu2md/internal/commands/documents"
)

var moduleBuilder = bootstrap.BuildModule

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	if err := runConvert(os.Args[1:]); err != nil {
		log.Fatalf("convert: %v", err)
	}
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		rawURL      = fs.String("url", "", "Feishu/Lark document URL (docx, wiki or legacy docs)")
		outputDir   = fs.String("o", "", "Directory the Markdown file is written to (stdout when empty)")
		imageDir    = fs.String("images", "", "Download images into this directory, relative to -o")
		frontMatter = fs.Bool("front-matter", false, "Prepend YAML front matter with the document metadata")
		shareDoc    = fs.Bool("share", false, "Store the Markdown in the share store and print the share code")
		logLevel    = fs.String("log-level", "", "Override LOG_LEVEL")
		timeout     = fs.Duration("timeout", 2*time.Minute, "Overall deadline for the conversion")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	target := strings.TrimSpace(*rawURL)
	if target == "" && fs.NArg() > 0 {
		target = strings.TrimSpace(fs.Arg(0))
	}
	if target == "" {
		fs.Usage()
		return errors.New("a document URL is required")
	}

	success := color.New(color.FgGreen)
	note := color.New(color.FgCyan)

	module, err := moduleBuilder(bootstrap.Options{
		LogLevel:     *logLevel,
		DisableShare: !*shareDoc,
		CommandOptions: []documentscmd.Option{
			documentscmd.WithExportOptions(
				documentscmd.WithOutput(stdout),
				documentscmd.WithExportObserver(func(report documentscmd.ExportReport) {
					if report.Path == "" {
						return
					}
					success.Fprintf(stderr, "wrote %s", report.Path)
					if len(report.Images) > 0 {
						fmt.Fprintf(stderr, " (%d images)", len(report.Images))
					}
					fmt.Fprintln(stderr)
				}),
			),
			documentscmd.WithShareObserver(func(report documentscmd.ShareReport) {
				note.Fprintf(stderr, "shared %q as %s", report.Title, report.Code)
				if !report.ExpiresAt.IsZero() {
					fmt.Fprintf(stderr, " (expires %s)", report.ExpiresAt.Format(time.RFC3339))
				}
				fmt.Fprintln(stderr)
			}),
		},
	})
	if err != nil {
		return err
	}
	defer module.Close()

	if module.Commands == nil || module.Commands.Export == nil {
		return errors.New("export command handler not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cmd := documentscmd.ExportDocumentCommand{
		URL:         target,
		OutputDir:   *outputDir,
		ImageDir:    *imageDir,
		FrontMatter: *frontMatter,
		Stdout:      *outputDir == "",
	}
	if err := module.Commands.Export.Execute(ctx, cmd); err != nil {
		return err
	}

	if *shareDoc {
		if module.Commands.Share == nil {
			return errors.New("share store not configured")
		}
		if err := module.Commands.Share.Execute(ctx, documentscmd.ShareDocumentCommand{URL: target}); err != nil {
			return err
		}
	}
	return nil
}
