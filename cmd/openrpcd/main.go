// Command openrpcd builds and serves OpenRPC discovery documents from a
// method-map artifact.
//
// "openrpcd generate" is the build-pipeline entry point: it loads a method
// map (JSON or CBOR), builds the document, and writes it as JSON or YAML.
// "openrpcd serve" exposes the same document over HTTP: rpc.discover on
// /rpc and the raw document on /openrpc.json.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/mnehpets/openrpcserve/discover"
	"github.com/mnehpets/openrpcserve/endpoint"
	"github.com/mnehpets/openrpcserve/jsonrpc"
	"github.com/mnehpets/openrpcserve/methodmap"
	"github.com/mnehpets/openrpcserve/middleware"
	"github.com/mnehpets/openrpcserve/openrpc"
)

func main() {
	// Optional .env for local development; absence is not an error.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	app := &cli.App{
		Name:  "openrpcd",
		Usage: "build and serve OpenRPC discovery documents",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(ctx *cli.Context) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if ctx.Bool("debug") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			generateCommand,
			serveCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

// documentFlags are shared by generate and serve.
var documentFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "map",
		Usage:    "path to the method-map artifact (.json or .cbor)",
		EnvVars:  []string{"OPENRPCD_MAP"},
		Required: true,
	},
	&cli.StringFlag{
		Name:    "title",
		Usage:   "document title (info.title)",
		EnvVars: []string{"OPENRPCD_TITLE"},
		Value:   "JSON-RPC API",
	},
	&cli.StringFlag{
		Name:    "api-version",
		Usage:   "API version (info.version)",
		EnvVars: []string{"OPENRPCD_API_VERSION"},
		Value:   "0.1.0",
	},
	&cli.StringFlag{
		Name:    "description",
		Usage:   "document description (info.description)",
		EnvVars: []string{"OPENRPCD_DESCRIPTION"},
	},
	&cli.StringSliceFlag{
		Name:    "server",
		Usage:   "server endpoint as name=url (repeatable, ordered)",
		EnvVars: []string{"OPENRPCD_SERVERS"},
	},
	&cli.BoolFlag{
		Name:    "strict-docs",
		Usage:   "fail when a parameter has no documentation",
		EnvVars: []string{"OPENRPCD_STRICT_DOCS"},
	},
}

func documentConfig(ctx *cli.Context) (openrpc.Config, error) {
	cfg := openrpc.Config{
		Title:       ctx.String("title"),
		Version:     ctx.String("api-version"),
		Description: ctx.String("description"),
		StrictDocs:  ctx.Bool("strict-docs"),
	}
	for _, s := range ctx.StringSlice("server") {
		name, url, found := strings.Cut(s, "=")
		if !found {
			return openrpc.Config{}, fmt.Errorf("invalid --server value %q, want name=url", s)
		}
		cfg.Servers = append(cfg.Servers, openrpc.Server{Name: name, URL: url})
	}
	return cfg, nil
}

var generateCommand = &cli.Command{
	Name:  "generate",
	Usage: "build an OpenRPC document from a method-map artifact",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "out",
			Usage: "output path (.json, .yaml or .yml); stdout when empty",
		},
	}, documentFlags...),
	Action: func(ctx *cli.Context) error {
		cfg, err := documentConfig(ctx)
		if err != nil {
			return err
		}

		m, err := methodmap.Load(ctx.String("map"))
		if err != nil {
			return err
		}
		log.Debug().Int("methods", len(m.Methods)).Int("types", len(m.Types)).Msg("loaded method map")

		doc, err := openrpc.Build(m, cfg)
		if err != nil {
			return err
		}

		out := ctx.String("out")
		if out == "" {
			return doc.EncodeJSON(os.Stdout)
		}

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()

		switch strings.ToLower(filepath.Ext(out)) {
		case ".yaml", ".yml":
			err = doc.EncodeYAML(f)
		default:
			err = doc.EncodeJSON(f)
		}
		if err != nil {
			return err
		}
		log.Info().Str("out", out).Int("methods", len(doc.Methods)).Msg("wrote document")
		return f.Close()
	},
}

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "serve the discovery document over HTTP",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "listen address",
			EnvVars: []string{"OPENRPCD_LISTEN"},
			Value:   ":8080",
		},
		&cli.StringFlag{
			Name:    "auth-issuer",
			Usage:   "OIDC issuer URL; when set, endpoints require a bearer token from this issuer",
			EnvVars: []string{"OPENRPCD_AUTH_ISSUER"},
		},
		&cli.StringFlag{
			Name:    "auth-audience",
			Usage:   "required token audience (with --auth-issuer)",
			EnvVars: []string{"OPENRPCD_AUTH_AUDIENCE"},
		},
	}, documentFlags...),
	Action: func(ctx *cli.Context) error {
		cfg, err := documentConfig(ctx)
		if err != nil {
			return err
		}

		m, err := methodmap.Load(ctx.String("map"))
		if err != nil {
			return err
		}

		// Build once; a build failure means we refuse to start.
		responder, err := discover.New(m, cfg)
		if err != nil {
			return err
		}

		rpc := jsonrpc.NewEndpoint()
		if err := responder.Attach(rpc); err != nil {
			return err
		}

		processors := []endpoint.Processor{
			middleware.NewAPISecurityHeadersProcessor(),
		}
		if issuer := ctx.String("auth-issuer"); issuer != "" {
			provider, err := oidc.NewProvider(ctx.Context, issuer)
			if err != nil {
				return fmt.Errorf("discovering OIDC issuer: %w", err)
			}
			oc := &oidc.Config{ClientID: ctx.String("auth-audience")}
			if oc.ClientID == "" {
				oc.SkipClientIDCheck = true
			}
			processors = append(processors, middleware.NewOIDCBearerProcessor(provider.Verifier(oc)))
			log.Info().Str("issuer", issuer).Msg("bearer auth enabled")
		}

		mux := http.NewServeMux()
		mux.Handle("/rpc", endpoint.Handler(rpc.Endpoint, processors...))
		mux.Handle("/openrpc.json", endpoint.Handler(responder.Endpoint, processors...))

		addr := ctx.String("listen")
		log.Info().
			Str("listen", addr).
			Int("methods", len(m.Methods)).
			Msg("serving discovery document")
		return http.ListenAndServe(addr, mux)
	},
}
