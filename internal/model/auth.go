package model

import "github.com/golang-jwt/jwt/v5"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	HostID string `json:"hostId"`
}

// HostClaims is the JWT payload for the room host.
type HostClaims struct {
	HostID string `json:"hostId"`
	jwt.RegisteredClaims
}

// PlayerClaims is the JWT payload for a joined player, bound to one room.
type PlayerClaims struct {
	PlayerID string `json:"playerId"`
	RoomCode string `json:"roomCode"`
	jwt.RegisteredClaims
}
