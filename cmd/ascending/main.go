// Command ascending is a headless game client: it connects, logs in, keeps
// the map window loaded and prints chat to the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/common-nighthawk/go-figure"
	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"badc0de.net/pkg/go-ascending/client"
	"badc0de.net/pkg/go-ascending/metrics"
	"badc0de.net/pkg/go-ascending/paths"
)

var (
	cfg = client.DefaultConfig()

	debugWebServer = flag.String("debug_web_server_listen_address", "", "where the debug server (metrics, /debug/requests, /debug/events) will listen")
	banner         = flag.Bool("banner", true, "print a banner on startup")
	noColor        = flag.Bool("no_color", false, "print chat without color escape sequences")
)

func setupFlags() {
	flag.StringVar(&cfg.Addr, "addr", "localhost:7010", "server address; a ws:// URL for the websocket transport")
	flag.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport to use: tcp or ws")
	flag.StringVar(&cfg.ServerName, "server_name", cfg.ServerName, "name the server certificate is checked against")
	paths.SetupFilePathFlag("roots.pem", "certs_path", &cfg.CertsPath)
	paths.SetupFilePathFlag("maps", "map_dir", &cfg.MapDir)

	flag.StringVar(&cfg.MapS3.Bucket, "map_bucket", "", "S3 bucket to load map chunks from instead of map_dir")
	flag.StringVar(&cfg.MapS3.Prefix, "map_prefix", "", "prefix of map chunk objects in map_bucket")
	flag.StringVar(&cfg.MapS3.Region, "map_region", "us-east-1", "region of map_bucket")
	flag.StringVar(&cfg.MapS3.Endpoint, "map_endpoint", "", "S3-compatible endpoint serving map_bucket")

	flag.StringVar(&cfg.Username, "username", "", "account to log in with; empty to only connect")
	flag.StringVar(&cfg.Password, "password", "", "account password")
	flag.BoolVar(&cfg.Register, "register", false, "register the account before logging in")
	flag.StringVar(&cfg.Email, "email", "", "email address for registration")

	flag.IntVar(&cfg.FPS, "fps", cfg.FPS, "logic frames per second")
	flag.IntVar(&cfg.MaxPacketsPerFrame, "max_packets_per_frame", cfg.MaxPacketsPerFrame, "inbound packets handled per frame")
	flag.DurationVar(&cfg.PingInterval, "ping_interval", cfg.PingInterval, "how often to measure latency; 0 disables")
}

func debugServer(addr string) {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/debug/minimetrics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "runtime.NumGoroutine(): %d\n", runtime.NumGoroutine())
	})
	// golang.org/x/net/trace registers its pages on the default mux.
	r.PathPrefix("/debug/").Handler(http.DefaultServeMux)

	h := handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stderr, r))
	glog.Infof("debug server listening on %s", addr)
	if err := http.ListenAndServe(addr, h); err != nil {
		glog.Errorf("debug server: %v", err)
	}
}

func main() {
	setupFlags()
	flagutil.Parse()

	if *banner {
		figure.NewFigure("ascending", "", true).Print()
	}
	glog.Infoln("starting ascending client")

	if *debugWebServer != "" {
		go debugServer(*debugWebServer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	term := newTerminal(os.Stdout, !*noColor)
	c, err := client.Dial(ctx, cfg, client.WithAlert(term), client.WithMetrics(metrics.New()))
	if err != nil {
		glog.Exitf("connecting: %v", err)
	}
	c.Content.Game.Chat.OnChat = term.PrintChat

	if err := c.Run(ctx); err != nil {
		glog.Exitf("disconnected: %v", err)
	}
	glog.Infoln("bye")
}
