package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappy-core/internal/config"
	"github.com/vovakirdan/flappy-core/internal/platform/tui"
	"github.com/vovakirdan/flappy-core/internal/platform/ws"
)

var (
	flagSSHAddr     string
	flagWSAddr      string
	flagHostKey     string
	flagIdleTimeout time.Duration
	flagNoSSH       bool
	flagNoWS        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve SSH and websocket play",
	Long: `Start an SSH server for terminal play and a websocket endpoint for
programmatic clients. Both share one database.

SSH: the SSH user name is the player. A record is created on first connect.
Websocket: GET /ws?player=NAME&signer=NAME&token=TOKEN, then send
{"type":"flap","seq":1}; each message is answered with the record. The
token comes from "flappy token issue" run by the player.

Examples:
  flappy serve
  flappy serve --ssh :2222 --ws :9000
  flappy serve --no-ssh

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH listen address (default: server.ssh_addr)")
	serveCmd.Flags().StringVar(&flagWSAddr, "ws", "", "Websocket listen address (default: server.ws_addr)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "SSH host key path (default: server.host_key)")
	serveCmd.Flags().DurationVar(&flagIdleTimeout, "idle-timeout", 0, "SSH idle timeout (default: server.idle_timeout)")
	serveCmd.Flags().BoolVar(&flagNoSSH, "no-ssh", false, "Do not start the SSH server")
	serveCmd.Flags().BoolVar(&flagNoWS, "no-ws", false, "Do not start the websocket server")
}

func runServe(_ *cobra.Command, _ []string) {
	a, err := openApp("flappy-serve")
	if err != nil {
		fail("%v", err)
	}
	defer a.Close()

	srv := a.cfg.Server
	if flagSSHAddr != "" {
		srv.SSHAddr = flagSSHAddr
	}
	if flagWSAddr != "" {
		srv.WSAddr = flagWSAddr
	}
	if flagHostKey != "" {
		srv.HostKey = flagHostKey
	}
	if flagIdleTimeout > 0 {
		srv.IdleTimeout = flagIdleTimeout
	}
	if flagNoSSH && flagNoWS {
		a.Close()
		fail("nothing to serve: both --no-ssh and --no-ws given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 2)

	var sshServer *tui.SSHServer
	if !flagNoSSH {
		sshServer, err = tui.NewSSHServer(tui.SSHServerConfig{
			Address:     srv.SSHAddr,
			HostKeyPath: config.ExpandHome(srv.HostKey),
			TickRate:    a.cfg.Play.TickRate,
			IdleTimeout: srv.IdleTimeout,
		}, a.svc, a.store, a.logger.WithPrefix("flappy-ssh"))
		if err != nil {
			a.Close()
			fail("%v", err)
		}
		go func() { errc <- sshServer.ListenAndServe() }()
	}

	var httpServer *http.Server
	if !flagNoWS {
		mux := http.NewServeMux()
		mux.Handle("/ws", ws.NewHandler(a.svc, a.authn, ws.HandlerConfig{Logger: a.logger.WithPrefix("flappy-ws")}))
		httpServer = &http.Server{
			Addr:              srv.WSAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			a.logger.Info("starting websocket server", "address", srv.WSAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
				return
			}
			errc <- nil
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down...")
	case err := <-errc:
		if err != nil {
			a.logger.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sshServer != nil {
		if err := sshServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("SSH shutdown", "error", err)
		}
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("websocket shutdown", "error", err)
		}
	}
}
