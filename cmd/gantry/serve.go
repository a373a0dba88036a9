package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/gantry"
	"github.com/aretw0/gantry/internal/adapters/httpapi"
	"github.com/aretw0/gantry/internal/adapters/memory"
	redisstore "github.com/aretw0/gantry/internal/adapters/redis"
	"github.com/aretw0/gantry/internal/observability"
	"github.com/aretw0/gantry/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Starts gantry in server mode: POST /events accepts hosting-system webhooks
and dispatches pipelines asynchronously, GET /runs exposes run history and
/metrics serves Prometheus metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")

		logger := newLogger(cmd)

		var store ports.RunStore = memory.NewStore()
		if redisAddr != "" {
			rs := redisstore.New(redisAddr, os.Getenv("GANTRY_REDIS_PASSWORD"), 0)
			defer rs.Close()
			store = rs
		}

		registry := prometheus.NewRegistry()
		metrics := observability.NewMetrics(registry)

		opts := append(baseOptions(logger),
			gantry.WithRunStore(store),
			gantry.WithLifecycleHooks(metrics.Hooks()),
		)
		orch, err := gantry.New(dir, opts...)
		if err != nil {
			fmt.Printf("Error initializing gantry: %v\n", err)
			os.Exit(1)
		}

		api := httpapi.NewServer(orch,
			httpapi.WithLogger(logger),
			httpapi.WithRunStore(store),
			httpapi.WithMetricsRegistry(registry),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: api.Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Printf("Starting Gantry Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			// Let in-flight pipeline runs finish before dropping the store.
			api.Wait()
			fmt.Println("Gantry Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for run persistence (empty = in-memory)")
}
