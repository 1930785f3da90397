package main

import (
	"flag"
	"io"
	"strings"

	configpkg "github.com/drblury/fieldcounter/internal/runtime/config"
)

type options struct {
	configPath string
	fieldName  string
	transport  string
}

func parseFlags(args []string, out io.Writer) (options, error) {
	fs := flag.NewFlagSet("fieldcounter", flag.ContinueOnError)
	if out == nil {
		out = io.Discard
	}
	fs.SetOutput(out)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.fieldName, "field-name", "", "dot-delimited field to count, overrides field_name")
	fs.StringVar(&opts.transport, "transport", "", "transport to consume from, overrides transport")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// apply overrides cfg with the flags that were set.
func (o options) apply(cfg *configpkg.Config) {
	if v := strings.TrimSpace(o.fieldName); v != "" {
		cfg.FieldName = v
	}
	if v := strings.TrimSpace(o.transport); v != "" {
		cfg.PubSubSystem = v
	}
}
