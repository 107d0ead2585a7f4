package config

import "os"

type Config struct {
	MongoURI     string
	MongoDB      string
	RedisAddr    string
	Port         string
	JWTSecret    string
	HostUsername string
	HostPassword string
}

func Load() *Config {
	return &Config{
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "trivialive"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		Port:         getEnv("PORT", "8080"),
		JWTSecret:    getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		HostUsername: getEnv("HOST_USERNAME", "admin"),
		HostPassword: getEnv("HOST_PASSWORD", "password123"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
