package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kokoroe/kokoroe-sdk-go/internal/app"
	"github.com/kokoroe/kokoroe-sdk-go/internal/config"
	"github.com/kokoroe/kokoroe-sdk-go/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "kokoroe: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("kokoroe", pflag.ContinueOnError)
	method := flags.StringP("method", "X", "GET", "HTTP method: GET, POST, PUT or DELETE")
	body := flags.StringP("data", "d", "", "form encoded body, e.g. 'title=Yoga&level=1'")
	files := flags.StringArrayP("file", "F", nil, "multipart upload as field=path (repeatable)")
	token := flags.StringP("token", "t", "", "access token (defaults to ACCESS_TOKEN)")
	output := flags.StringP("output", "o", "", "output format: json, yaml or raw (defaults to OUTPUT_FORMAT)")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: kokoroe [flags] <endpoint>")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("expected exactly one endpoint")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *output != "" {
		switch format := strings.ToLower(*output); format {
		case "json", "yaml", "raw":
			cfg.OutputFormat = format
		default:
			return fmt.Errorf("invalid --output %q (want json, yaml or raw)", *output)
		}
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	uploads, err := parseFiles(*files)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(cfg, logger.Zap{}, os.Stdout)
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err)
		return err
	}

	return runner.Run(ctx, app.Call{
		Method:      *method,
		Endpoint:    flags.Arg(0),
		Body:        *body,
		Files:       uploads,
		AccessToken: *token,
	})
}

func parseFiles(specs []string) (map[string]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(specs))
	for _, spec := range specs {
		field, path, ok := strings.Cut(spec, "=")
		if !ok || field == "" || path == "" {
			return nil, fmt.Errorf("invalid --file %q (want field=path)", spec)
		}
		out[field] = path
	}
	return out, nil
}
