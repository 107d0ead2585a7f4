package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"trivialive/internal/cache"
	"trivialive/internal/service"
	"trivialive/internal/transport/rest/handler"
	"trivialive/internal/transport/rest/middleware"
	"trivialive/internal/transport/ws"
)

// Container holds all dependencies for the router.
type Container struct {
	AuthService   *service.AuthService
	GameService   *service.GameService
	VotingService *service.VotingService
	Leaderboard   cache.LeaderboardCache
	WSHandler     *ws.Handler
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	roomHandler := handler.NewRoomHandler(c.GameService, c.VotingService, c.AuthService, c.Leaderboard)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/rooms/{code}/join", roomHandler.Join).Methods("POST", "OPTIONS")
	// Registered before /rooms/{code} so "active" is not read as a room code.
	v1.Handle("/rooms/active", authMW.RequireHost(http.HandlerFunc(roomHandler.ListActive))).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{code}", roomHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{code}/leaderboard", roomHandler.Leaderboard).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{code}/voting", roomHandler.Voting).Methods("GET", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/rooms/{code}", c.WSHandler.RoomWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/rooms", roomHandler.Create).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/rooms/{code}", roomHandler.Delete).Methods("DELETE", "OPTIONS")
	hostRoutes.HandleFunc("/rooms/{code}/start", roomHandler.Start).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/rooms/{code}/advance", roomHandler.Advance).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/rooms/{code}/reset", roomHandler.Reset).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/rooms/{code}/settings", roomHandler.GetSettings).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/rooms/{code}/settings", roomHandler.UpdateSettings).Methods("PUT", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
