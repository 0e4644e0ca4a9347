package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	lightgrpc "github.com/blockberries/lightreq/grpc"
	"github.com/blockberries/lightreq/internal/config"
	"github.com/blockberries/lightreq/internal/metrics"
	"github.com/blockberries/lightreq/store"
)

var sigs = make(chan os.Signal, 1)

// listening receives the bound gRPC address once serve is accepting.
var listening = func(addr net.Addr) {}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve light requests from the local store over gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	db, err := store.Open(config.GetString(config.StorePath), store.Options{
		SyncWrites: config.GetBool(config.StoreSyncWrites),
		MaxHandles: config.GetInt(config.StoreMaxHandles),
	})
	if err != nil {
		return err
	}
	defer db.Close()

	gs, err := lightgrpc.NewGRPCServer(db, config.GetInt(config.ServerMaxRequests))
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", config.GetString(config.ServerAddress))
	if err != nil {
		return fmt.Errorf("serve: listen: %w", err)
	}
	s := grpc.NewServer()
	gs.Register(s)

	var metricsServer *http.Server
	if addr := config.GetString(config.MetricsAddress); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("Metrics server failed: %s", err)
			}
		}()
		logrus.Infof("Metrics listening on %s", addr)
	}

	errs := make(chan error, 1)
	go func() {
		errs <- s.Serve(lis)
	}()
	logrus.Infof("Serving light requests on %s", lis.Addr())
	listening(lis.Addr())

	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	select {
	case sig := <-sigs:
		logrus.Infof("Shutting down due to %s", sig.String())
	case err = <-errs:
		logrus.Errorf("gRPC server stopped: %s", err)
	}
	s.GracefulStop()
	if metricsServer != nil {
		_ = metricsServer.Close()
	}
	return err
}
