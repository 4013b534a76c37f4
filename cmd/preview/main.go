// Command preview renders a campaign template to HTML for design review.
//
//	preview -kind welcome -data data.json -email someone@example.com -out welcome.html
//	preview -list
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/innovatehub/campaign-mailer/internal/config"
	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/mailing"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "preview:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	kind := fs.String("kind", string(domain.KindWelcome), "template kind to render")
	dataPath := fs.String("data", "", "JSON file with template data")
	email := fs.String("email", "", "recipient email used for the unsubscribe link")
	out := fs.String("out", "", "write HTML here instead of stdout")
	list := fs.Bool("list", false, "list template kinds and their default subjects")
	if err := fs.Parse(args); err != nil {
		return err
	}

	renderer, err := mailing.NewRenderer(config.Default().Links.UnsubscribeURL)
	if err != nil {
		return err
	}

	if *list {
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tDEFAULT SUBJECT")
		for _, k := range renderer.Kinds() {
			fmt.Fprintf(tw, "%s\t%s\n", k, renderer.DefaultSubject(k))
		}
		return tw.Flush()
	}

	data := map[string]any{}
	if *dataPath != "" {
		raw, err := os.ReadFile(*dataPath)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("parse %s: %w", *dataPath, err)
		}
	}
	if *email != "" {
		data["email"] = *email
	}

	html, err := renderer.Render(domain.TemplateKind(*kind), data)
	if err != nil {
		return err
	}

	if *out == "" {
		_, err = io.WriteString(stdout, html)
		return err
	}
	return os.WriteFile(*out, []byte(html), 0o644)
}
