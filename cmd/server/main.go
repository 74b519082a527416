package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/semi556tgb/pure-converse/internal/config"
	"github.com/semi556tgb/pure-converse/internal/database"
	postgresrepo "github.com/semi556tgb/pure-converse/internal/repository/postgres"
	"github.com/semi556tgb/pure-converse/internal/repository/redisstore"
	"github.com/semi556tgb/pure-converse/internal/service"
	"github.com/semi556tgb/pure-converse/internal/transport/http/handlers"
	"github.com/semi556tgb/pure-converse/internal/transport/http/middleware"
	"github.com/semi556tgb/pure-converse/internal/transport/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer rdb.Close()
	log.Println("Connected to redis")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	friendRepo := postgresrepo.NewFriendRepo(pool)
	convRepo := postgresrepo.NewConversationRepo(pool)
	msgRepo := postgresrepo.NewMessageRepo(pool)
	callRepo := postgresrepo.NewCallRepo(pool)
	presenceRepo := redisstore.NewPresenceRepo(rdb)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	friendService := service.NewFriendService(friendRepo, userRepo)
	convService := service.NewConversationService(convRepo, friendRepo, msgRepo, userRepo)
	msgService := service.NewMessageService(msgRepo, convRepo, friendRepo, presenceRepo)
	callService := service.NewCallService(callRepo, convRepo, msgRepo)
	presenceService := service.NewPresenceService(presenceRepo, convRepo, friendRepo, userRepo, cfg.TypingTTL)

	// WebSocket hub + fan-out
	hub := ws.NewHub()
	go hub.Run()
	notifier := ws.NewHubNotifier(hub)
	friendService.SetNotifier(notifier)
	convService.SetNotifier(notifier)
	msgService.SetNotifier(notifier)
	callService.SetNotifier(notifier)
	presenceService.SetNotifier(notifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	friendHandler := handlers.NewFriendHandler(friendService)
	convHandler := handlers.NewConversationHandler(convService)
	msgHandler := handlers.NewMessageHandler(msgService)
	callHandler := handlers.NewCallHandler(callService)
	presenceHandler := handlers.NewPresenceHandler(presenceService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Protected - Users
	mux.Handle("GET /api/v1/users/me", auth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PATCH /api/v1/users/me", auth(http.HandlerFunc(authHandler.UpdateProfile)))
	mux.Handle("PUT /api/v1/users/me/status", auth(http.HandlerFunc(presenceHandler.SetStatus)))
	mux.Handle("GET /api/v1/users/search", auth(http.HandlerFunc(authHandler.Search)))
	mux.Handle("POST /api/v1/users/{id}/block", auth(http.HandlerFunc(friendHandler.Block)))

	// Protected - Friends
	mux.Handle("POST /api/v1/friends/requests", auth(http.HandlerFunc(friendHandler.SendRequest)))
	mux.Handle("GET /api/v1/friends/requests", auth(http.HandlerFunc(friendHandler.ListRequests)))
	mux.Handle("POST /api/v1/friends/requests/{id}/accept", auth(http.HandlerFunc(friendHandler.AcceptRequest)))
	mux.Handle("POST /api/v1/friends/requests/{id}/reject", auth(http.HandlerFunc(friendHandler.RejectRequest)))
	mux.Handle("GET /api/v1/friends", auth(http.HandlerFunc(friendHandler.ListFriends)))
	mux.Handle("DELETE /api/v1/friends/{userId}", auth(http.HandlerFunc(friendHandler.Unfriend)))

	// Protected - Conversations
	mux.Handle("POST /api/v1/conversations/direct", auth(http.HandlerFunc(convHandler.CreateDirect)))
	mux.Handle("POST /api/v1/conversations/group", auth(http.HandlerFunc(convHandler.CreateGroup)))
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(convHandler.List)))
	mux.Handle("GET /api/v1/conversations/{id}", auth(http.HandlerFunc(convHandler.Get)))
	mux.Handle("PATCH /api/v1/conversations/{id}", auth(http.HandlerFunc(convHandler.Rename)))
	mux.Handle("DELETE /api/v1/conversations/{id}", auth(http.HandlerFunc(convHandler.Delete)))
	mux.Handle("DELETE /api/v1/conversations/{id}/members/{uid}", auth(http.HandlerFunc(convHandler.KickMember)))

	// Protected - Messages
	mux.Handle("POST /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(msgHandler.Send)))
	mux.Handle("GET /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(msgHandler.List)))
	mux.Handle("PATCH /api/v1/messages/{id}", auth(http.HandlerFunc(msgHandler.Edit)))
	mux.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(msgHandler.Delete)))
	mux.Handle("POST /api/v1/messages/{id}/reactions", auth(http.HandlerFunc(msgHandler.React)))

	// Protected - Typing
	mux.Handle("PUT /api/v1/conversations/{id}/typing", auth(http.HandlerFunc(presenceHandler.SetTyping)))
	mux.Handle("GET /api/v1/conversations/{id}/typing", auth(http.HandlerFunc(presenceHandler.ListTyping)))

	// Protected - Calls
	mux.Handle("POST /api/v1/conversations/{id}/calls", auth(http.HandlerFunc(callHandler.Initiate)))
	mux.Handle("GET /api/v1/calls/{id}", auth(http.HandlerFunc(callHandler.Get)))
	mux.Handle("POST /api/v1/calls/{id}/join", auth(http.HandlerFunc(callHandler.Join)))
	mux.Handle("POST /api/v1/calls/{id}/decline", auth(http.HandlerFunc(callHandler.Decline)))
	mux.Handle("POST /api/v1/calls/{id}/leave", auth(http.HandlerFunc(callHandler.Leave)))
	mux.Handle("PATCH /api/v1/calls/{id}/mute", auth(http.HandlerFunc(callHandler.SetMute)))
	mux.Handle("PATCH /api/v1/calls/{id}/video", auth(http.HandlerFunc(callHandler.SetVideo)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, presenceService, cfg.JWTSecret))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}
