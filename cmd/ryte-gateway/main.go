package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/ryteapp/ryte-gateway/auth"
	"github.com/ryteapp/ryte-gateway/config"
	"github.com/ryteapp/ryte-gateway/globals"
	"github.com/ryteapp/ryte-gateway/persistence"
	"github.com/ryteapp/ryte-gateway/presence"
	"github.com/ryteapp/ryte-gateway/sessions"
	"github.com/ryteapp/ryte-gateway/ws"
	"github.com/spf13/pflag"
)

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
	addr       = pflag.String("addr", "", "ws service address (including port), overrides config")
	sslCert    = pflag.String("ssl-cert", "", "SSL cert for websocket (optional)")
	sslKey     = pflag.String("ssl-key", "", "SSL key for websocket (optional)")

	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	hub           *ws.Hub
	authenticator *auth.Authenticator
)

func main() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)
	pflag.Parse()

	globalConfig, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		panic(err)
	}

	if globalConfig.LogLevel != "" {
		globals.AppLogger.SetLevel(hclog.LevelFromString(globalConfig.LogLevel))
	}

	persister, err := persistence.NewPersister(globalConfig)
	if err != nil {
		panic(err)
	}
	if persister == nil {
		panic("no persistence configured")
	}
	defer persister.Close()

	sessionStore, err := sessions.NewStore(globalConfig)
	if err != nil {
		panic(err)
	}
	defer sessionStore.Close()

	sweeper, err := sessions.NewSweeper(sessionStore, globalConfig.SessionsConfig.CleanupSpec)
	if err != nil {
		panic(err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	authenticator, err = auth.NewAuthenticator(sessionStore, persister, globalConfig.SessionsConfig.UserCacheSize)
	if err != nil {
		panic(err)
	}

	hub = ws.NewHub(persister, presence.NewRegistry())

	go func() {
		<-c
		globals.AppLogger.Info("interrupted, shutting down")
		sweeper.Stop()
		sessionStore.Close()
		persister.Close()
		os.Exit(0)
	}()

	listenAddr := globalConfig.ServerConfig.Addr
	if *addr != "" {
		listenAddr = *addr
	}
	cert := globalConfig.ServerConfig.SSLCert
	key := globalConfig.ServerConfig.SSLKey
	if *sslCert != "" && *sslKey != "" {
		cert, key = *sslCert, *sslKey
	}

	setupRoutes()
	globals.AppLogger.Info("listening", "addr", listenAddr)
	if cert != "" && key != "" {
		err = http.ListenAndServeTLS(listenAddr, cert, key, nil)
	} else {
		err = http.ListenAndServe(listenAddr, nil)
	}
	globals.AppLogger.Error("stopped listening", "error", err)
}

func setupRoutes() {
	router := mux.NewRouter()
	router.HandleFunc("/ws", websocketHandler).Methods(http.MethodGet)
	http.Handle("/", router)
}

// Handle incoming websockets. The session token travels in the handshake
// query, not in a cookie: this is a persistent-connection handshake, not a
// normal request. Authentication failures abort before the upgrade, so a
// refused handshake never establishes a connection.
func websocketHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	identity, err := authenticator.Authenticate(sessionID)
	if err != nil {
		var authErr *auth.AuthenticationError
		if errors.As(err, &authErr) {
			globals.AppLogger.Info("handshake refused", "reason", authErr.Reason)
		} else {
			globals.AppLogger.Error("handshake failed", "error", err)
		}
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	// Upgrade HTTP request to Websocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		globals.AppLogger.Error("websocket upgrade error", "error", err)
		return
	}

	client := ws.NewClient(hub, conn, *identity)
	hub.Register(client)
	globals.AppLogger.Debug("client registered", "connId", client.ID(), "userId", identity.UserID)

	go client.WriteLoop()
	client.ReadLoop()
	globals.AppLogger.Debug("connection closed", "connId", client.ID(), "userId", identity.UserID)
}
