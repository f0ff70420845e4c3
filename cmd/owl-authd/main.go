// Command owl-authd is a reference Owl authentication server.
//
// It serves registration and authentication over plain TCP with
// length-prefixed CBOR frames, persists credentials to a JSON file,
// and advertises itself via mDNS so owl-login can find it. There is
// no transport security: the Owl exchange itself needs none for the
// demo, and real deployments wrap the records in their own channel.
//
// Usage:
//
//	owl-authd [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-listen string     TCP listen address (default ":4777")
//	-curve string      Curve: P256, P384, P521, FourQ (default "P256")
//	-server-id string  Server identity string (default "owl-authd.local")
//	-state-dir string  Directory for the credential file (default: in-memory)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-no-advertise      Disable mDNS advertisement
//
// Examples:
//
//	# In-memory server on the default port
//	owl-authd
//
//	# Persistent credentials on P-384
//	owl-authd -curve P384 -state-dir /var/lib/owl-authd
//
//	# From a config file
//	owl-authd -config /etc/owl/authd.yaml
package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/enbility/zeroconf/v3"

	"github.com/owl-protocol/owl-go/internal/demowire"
	"github.com/owl-protocol/owl-go/pkg/curve"
	owllog "github.com/owl-protocol/owl-go/pkg/log"
	"github.com/owl-protocol/owl-go/pkg/owl"
	"github.com/owl-protocol/owl-go/pkg/persistence"
	"github.com/owl-protocol/owl-go/pkg/service"
	"github.com/owl-protocol/owl-go/pkg/wire"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	listen := flag.String("listen", "", "TCP listen address")
	curveName := flag.String("curve", "", "curve: P256, P384, P521, FourQ")
	serverID := flag.String("server-id", "", "server identity string")
	stateDir := flag.String("state-dir", "", "directory for the credential file")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	noAdvertise := flag.Bool("no-advertise", false, "disable mDNS advertisement")
	flag.Parse()

	config := DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = LoadConfig(*configPath)
		if err != nil {
			stdlog.Fatalf("Failed to load config: %v", err)
		}
	}

	// Flags override the file.
	if *listen != "" {
		config.Listen = *listen
	}
	if *curveName != "" {
		config.Curve = *curveName
	}
	if *serverID != "" {
		config.ServerID = *serverID
	}
	if *stateDir != "" {
		config.StateDir = *stateDir
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}
	if *noAdvertise {
		config.Advertise = false
	}

	if err := run(config); err != nil {
		stdlog.Fatalf("owl-authd: %v", err)
	}
}

func run(config Config) error {
	logger := newLogger(config.LogLevel)

	curveID, err := curve.ParseID(config.Curve)
	if err != nil {
		return err
	}
	group, err := curve.New(curveID)
	if err != nil {
		return err
	}

	var creds persistence.CredentialStore
	if config.StateDir != "" {
		path := filepath.Join(config.StateDir, "users.json")
		creds = persistence.NewFileCredentialStore(path, group)
		logger.Info("using credential file", "path", path)
	} else {
		creds = persistence.NewMemoryCredentialStore()
		logger.Info("using in-memory credentials (lost on restart)")
	}

	svc, err := service.New(service.Config{
		Owl:         owl.Config{Curve: curveID, ServerID: config.ServerID},
		Credentials: creds,
		Logger:      owllog.NewSlogAdapter(logger),
	})
	if err != nil {
		return err
	}
	defer svc.Close()

	listener, err := net.Listen("tcp", config.Listen)
	if err != nil {
		return err
	}
	defer listener.Close()
	logger.Info("listening", "addr", listener.Addr().String(), "curve", curveID.String(), "server_id", config.ServerID)

	if config.Advertise {
		shutdown, err := advertise(listener.Addr(), config)
		if err != nil {
			logger.Warn("mDNS advertisement failed", "error", err)
		} else {
			defer shutdown()
			logger.Info("advertising", "service", demowire.ServiceType)
		}
	}

	go acceptLoop(listener, svc, group, logger)

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())
	return nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func advertise(addr net.Addr, config Config) (func(), error) {
	_, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	instance := fmt.Sprintf("owl-authd-%s", config.ServerID)
	txt := []string{
		"curve=" + config.Curve,
		"server_id=" + config.ServerID,
	}
	server, err := zeroconf.Register(instance, demowire.ServiceType, demowire.Domain, port, txt, nil)
	if err != nil {
		return nil, err
	}
	return server.Shutdown, nil
}

func acceptLoop(listener net.Listener, svc *service.AuthService, group curve.Group, logger *slog.Logger) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		go handleConn(conn, svc, group, logger)
	}
}

// handleConn serves frames on one connection until the peer hangs up.
func handleConn(conn net.Conn, svc *service.AuthService, group curve.Group, logger *slog.Logger) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	logger.Debug("connection opened", "remote", remote)

	for {
		env, err := demowire.ReadFrame(conn, demowire.DefaultMaxFrameSize)
		if err != nil {
			logger.Debug("connection closed", "remote", remote)
			return
		}

		resp := dispatch(env, svc, group)
		if err := demowire.WriteFrame(conn, resp); err != nil {
			logger.Debug("write failed", "remote", remote, "error", err)
			return
		}
	}
}

// dispatch maps one request envelope to its response. Authentication
// failures collapse to a single "login failed" message so the wire
// leaks nothing about which check rejected the attempt or whether the
// user exists.
func dispatch(env *demowire.Envelope, svc *service.AuthService, group curve.Group) *demowire.Envelope {
	switch env.Type {
	case demowire.TypeRegister:
		req, err := wire.DecodeRegistrationRequest(env.Payload, group)
		if err != nil {
			return errEnvelope("malformed request")
		}
		if err := svc.Register(req); err != nil {
			return errEnvelope("registration failed")
		}
		return &demowire.Envelope{Type: demowire.TypeRegistered, Username: req.Username}

	case demowire.TypeAuthInit:
		req, err := wire.DecodeAuthInitRequest(env.Payload, group)
		if err != nil {
			return errEnvelope("malformed request")
		}
		sessionID, resp, err := svc.AuthInit(env.Username, req)
		if err != nil {
			return errEnvelope("login failed")
		}
		payload, err := wire.EncodeAuthInitResponse(resp)
		if err != nil {
			return errEnvelope("internal error")
		}
		return &demowire.Envelope{Type: demowire.TypeAuthInitResponse, Session: sessionID, Payload: payload}

	case demowire.TypeAuthFinish:
		req, err := wire.DecodeAuthFinishRequest(env.Payload, group)
		if err != nil {
			return errEnvelope("malformed request")
		}
		out, err := svc.AuthFinish(env.Username, env.Session, req)
		if err != nil {
			// ErrAuthentication, ErrZKPVerification, and unknown
			// sessions all collapse here.
			return errEnvelope("login failed")
		}
		// Return the server confirmation tag; the client checks it
		// against its kcTest for mutual confirmation.
		return &demowire.Envelope{Type: demowire.TypeOK, Payload: out.KC}

	default:
		return errEnvelope("unknown request type")
	}
}

func errEnvelope(msg string) *demowire.Envelope {
	return &demowire.Envelope{Type: demowire.TypeError, Message: msg}
}
