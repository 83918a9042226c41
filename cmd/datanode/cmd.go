package main

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/interuss/datanode/internal/auth"
	"github.com/interuss/datanode/internal/dss"
	"github.com/interuss/datanode/internal/geo"
	"github.com/interuss/datanode/internal/store"
)

type DataNodeOpts struct {
	port int

	tokenPublicKey string
	tokenAudience  string

	s2MinLevel int
	s2MaxLevel int
}

func NewRootCmd() *cobra.Command {
	opts := &DataNodeOpts{}
	rootCmd := &cobra.Command{
		Use:   "datanode",
		Args:  cobra.NoArgs,
		Short: "Serve the DSS data node",
		Long: `Serve the DSS data node

	This command runs a strategic coordination DSS data node. It stores
	subscription and operation references indexed by 4-dimensional volumes
	and reports notification fan-out to its callers.

	# Run a data node on port 5000 validating tokens against a public key
	./datanode --token-public-key "$(cat public.pem)" --token-audience dss.example.com
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.Run()
		},
	}

	rootCmd.Flags().IntVar(&opts.port, "port", 5000, "port to listen on")
	rootCmd.Flags().StringVar(&opts.tokenPublicKey, "token-public-key", os.Getenv("TOKEN_PUBLIC_KEY"), "PEM public key access tokens are verified against")
	rootCmd.Flags().StringVar(&opts.tokenAudience, "token-audience", os.Getenv("TOKEN_AUDIENCE"), "audience claim required of access tokens")
	rootCmd.Flags().IntVar(&opts.s2MinLevel, "s2-min-level", geo.DefaultS2Level, "minimum S2 cell level for horizontal indexing")
	rootCmd.Flags().IntVar(&opts.s2MaxLevel, "s2-max-level", geo.DefaultS2Level, "maximum S2 cell level for horizontal indexing")

	return rootCmd
}

func (opts *DataNodeOpts) Run() error {
	logger := defaultLogger()
	logger.Info(fmt.Sprintf("%s (%s) started", dss.ProgramName, version()))

	prometheusEmitter := dss.NewPrometheusEmitter(prometheus.DefaultRegisterer)

	// An unconfigured verifier is not a startup failure; protected
	// endpoints answer with a configuration error per request.
	verifier, err := auth.NewVerifier(opts.tokenPublicKey, opts.tokenAudience)
	if err != nil {
		return fmt.Errorf("parsing the token public key failed: %v", err)
	}
	if opts.tokenPublicKey == "" {
		logger.Warn("no token public key configured; authenticated endpoints will fail")
	}

	listener, err := net.Listen("tcp4", fmt.Sprintf(":%d", opts.port))
	if err != nil {
		return err
	}

	geoCfg := geo.Config{MinS2Level: opts.s2MinLevel, MaxS2Level: opts.s2MaxLevel}

	node := dss.NewDataNode(logger, listener, prometheusEmitter, store.NewMemoryStore(), verifier, geoCfg)

	stop := make(chan struct{})
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	go node.Run(context.Background(), stop)

	sig := <-signalChannel
	logger.Info(fmt.Sprintf("caught %s signal", sig))
	close(stop)

	node.Join()
	logger.Info(fmt.Sprintf("%s (%s) stopped", dss.ProgramName, version()))

	return nil
}

func defaultLogger() *slog.Logger {
	handlerOptions := slog.HandlerOptions{}
	handler := slog.NewJSONHandler(os.Stdout, &handlerOptions)
	return slog.New(handler)
}

func version() string {
	version := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				version = setting.Value
				break
			}
		}
	}

	return version
}
