package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/richard-senior/jrpc/examples/tools"
	"github.com/richard-senior/jrpc/internal/logger"
	"github.com/richard-senior/jrpc/pkg/dispatch"
	"github.com/richard-senior/jrpc/pkg/framer"
	"github.com/richard-senior/jrpc/pkg/jrpcserver"
	"github.com/richard-senior/jrpc/pkg/registry"
)

func serveCmd() *cobra.Command {
	var (
		framing  string
		delim    string
		logLevel string
		kvPath   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo handlers over stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.SetLevel(logger.ParseLevel(logLevel))
			logger.SetLogOutput('f')

			kv, err := tools.OpenKVStore(kvPath)
			if err != nil {
				return fmt.Errorf("open kv store: %w", err)
			}
			defer kv.Close()

			r := registry.New()
			if err := tools.Register(r, kv); err != nil {
				return fmt.Errorf("register handlers: %w", err)
			}

			f, err := buildFramer(framing, delim)
			if err != nil {
				return err
			}

			pipeline := dispatch.NewRequestPipeline(r, logger.Default())
			srv := jrpcserver.New(f, pipeline)
			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&framing, "framing", "delimited", `message framing: "delimited" or "content-length"`)
	cmd.Flags().StringVar(&delim, "delim", "\n", "delimiter byte for delimited framing (only the first byte is used)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error, fatal")
	cmd.Flags().StringVar(&kvPath, "kv-path", "/tmp/jrpcdemo.sqlite", `sqlite path for the kv store, or ":memory:"`)

	return cmd
}

func buildFramer(framing, delim string) (framer.Framer, error) {
	switch framing {
	case "delimited":
		if len(delim) == 0 {
			return nil, fmt.Errorf("--delim must not be empty")
		}
		return framer.NewDelimited(os.Stdin, os.Stdout, framer.WithDelimiter(delim[0])), nil
	case "content-length":
		return framer.NewContentLength(os.Stdin, os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown --framing %q (want delimited or content-length)", framing)
	}
}
