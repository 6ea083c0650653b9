package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mattn/go-colorable"
	nats "github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/firetalk/switchboard/config"
	"github.com/firetalk/switchboard/pkg/api"
	"github.com/firetalk/switchboard/pkg/signaling"
	"github.com/firetalk/switchboard/pkg/storage"
	"github.com/firetalk/switchboard/pkg/storage/memory"
	"github.com/firetalk/switchboard/pkg/token"
)

type signalingServer struct {
	cfg *config.Config

	quitCh chan bool
	doneCh chan bool

	nc     *nats.Conn
	issuer *token.Issuer
}

func init() {
	formatter := &logrus.TextFormatter{
		FullTimestamp: true,
	}
	logrus.SetFormatter(formatter)

	// Output to stdout instead of the default stderr
	log.SetOutput(colorable.NewColorableStdout())

	log.SetLevel(log.InfoLevel)
}

func newSignalingServer(cfg *config.Config) (*signalingServer, error) {
	s := &signalingServer{
		cfg:    cfg,
		quitCh: make(chan bool),
		doneCh: make(chan bool),
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown log level '%s', staying on info", cfg.LogLevel)
	}

	issuer, err := token.NewIssuer(cfg.AgoraAppID, cfg.AgoraAppCertificate,
		time.Duration(cfg.TokenExpiry)*time.Second)
	if err != nil {
		return nil, err
	}
	s.issuer = issuer

	// The event broker is optional. Without it the server still signals,
	// it just has no realtime event fan-out for collaborating services.
	if cfg.NATSServerURL != "" {
		nc, err := nats.Connect(cfg.NATSServerURL,
			nats.DrainTimeout(10*time.Second),
			nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
				log.Error("nats async error: ", err)
			}),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Warn("nats disconnected: ", err)
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				log.Info("nats reconnected to ", nc.ConnectedUrl())
			}))
		if err != nil {
			return nil, err
		}
		s.nc = nc
	}

	return s, nil
}

func (s *signalingServer) Serve() {
	store := memory.NewStore()

	var sink signaling.EventSink
	if s.nc != nil {
		sink = signaling.NewNATSSink(s.nc)
	}

	ctrl := signaling.NewController(store, s.issuer, sink, signaling.Timings{
		RingTimeout: time.Duration(s.cfg.RingTimeout) * time.Second,
	})

	e := newRouter(ctrl, s.nc, store, s.issuer)

	go func() {
		log.WithFields(log.Fields{
			"host": s.cfg.BindHost,
			"port": s.cfg.BindPort,
		}).Info("Starting server")

		if err := e.Start(fmt.Sprintf("%s:%d", s.cfg.BindHost, s.cfg.BindPort)); err != nil {
			e.Logger.Info("Shutting down the server")
		}
	}()

	// Wait until receiving the quit signal
	<-s.quitCh
	log.Info("Shutdown signal received")

	// Create a 10 second timeout context
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the echo web server
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Error(err)
	}

	// We've done!
	s.doneCh <- true
}

// newRouter assembles the echo instance with middleware and all routes.
func newRouter(ctrl *signaling.Controller, nc *nats.Conn, store storage.Interface, issuer *token.Issuer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	// Browser clients call the API cross-origin.
	e.Use(middleware.CORS())
	e.Use(logger())

	// Register the signaling websocket and API endpoints
	signaling.NewHandler(ctrl).RegisterRoutes(e)
	api.NewHandler(nc, store, issuer).RegisterRoutes(e)

	return e
}

// Logger returns a middleware that logs HTTP requests.
func logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			var err error
			if err = next(c); err != nil {
				c.Error(err)
			}
			stop := time.Now()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}
			reqSizeStr := req.Header.Get(echo.HeaderContentLength)
			if reqSizeStr == "" {
				reqSizeStr = "0"
			}
			reqSize, perr := strconv.ParseInt(reqSizeStr, 10, 0)
			if perr != nil {
				reqSize = -1
			}
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			}

			log.WithFields(log.Fields{
				"timestamp":     stop.Format(time.RFC3339),
				"id":            id,
				"remote_ip":     c.RealIP(),
				"host":          req.Host,
				"method":        req.Method,
				"uri":           req.RequestURI,
				"protocol":      req.Proto,
				"user_agent":    req.UserAgent(),
				"status":        res.Status,
				"status_text":   http.StatusText(res.Status),
				"referer":       req.Referer(),
				"error":         errMsg,
				"bytes_in":      reqSize,
				"bytes_out":     res.Size,
				"latency":       stop.Sub(start).Nanoseconds(),
				"latency_human": stop.Sub(start).String(),
			}).Infof("%s %s %s %d %s", req.Method, req.RequestURI, req.Proto,
				res.Status, strconv.FormatInt(res.Size, 10))

			return err
		}
	}
}

func (s *signalingServer) Shutdown() {
	if s.nc != nil {
		s.nc.Drain()
	}

	// Send the quit signal to the server.Serve() routine
	s.quitCh <- true

	// Wait up to 10 seconds
	select {
	case <-s.doneCh:
		log.Info("Shutdown server successful")
	case <-time.After(10 * time.Second):
		log.Error("Shutdown server failed")
	}
}

func RunServeSignaling(cfg *config.Config) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		s, err := newSignalingServer(cfg)
		if err != nil {
			if token.IsConfigurationError(err) {
				log.Error("invalid credential configuration: ", err)
			} else {
				log.Error("failed to create new server instance: ", err)
			}
			os.Exit(1)
		}

		go s.Serve()

		// Wait for interrupt signal to gracefully shutdown the server
		quitCh := make(chan os.Signal, 1)
		signal.Notify(quitCh, os.Interrupt, syscall.SIGTERM)
		<-quitCh

		// Shutdown the server
		s.Shutdown()
	}
}
