package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	LogLevel             string

	// Empty JWTSecret disables session tokens.
	JWTSecret      string
	RequireSession bool

	GeminiAPIKey string
	GeminiModel  string

	PinataJWT        string
	PinataAPIURL     string
	PinataGatewayURL string

	BaseRPCURL      string
	TreasuryAddress string

	SMSFailureRate    float64
	SocialFailureRate float64
	// SMSReceipts makes SMS sends report "sent" and settle via a receipt job.
	SMSReceipts bool

	WorkerPollInterval time.Duration
	AlertReceiptDelay  time.Duration
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getenv("DATABASE_URL", ""),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
		LogLevel:             getenv("LOG_LEVEL", "info"),

		JWTSecret:      getenv("JWT_SECRET", ""),
		RequireSession: getenv("REQUIRE_SESSION", "false") == "true",

		GeminiAPIKey: getenv("GEMINI_API_KEY", ""),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),

		PinataJWT:        getenv("PINATA_JWT", ""),
		PinataAPIURL:     getenv("PINATA_API_URL", "https://api.pinata.cloud"),
		PinataGatewayURL: getenv("PINATA_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs/"),

		BaseRPCURL:      getenv("BASE_RPC_URL", "https://mainnet.base.org"),
		TreasuryAddress: getenv("TREASURY_ADDRESS", ""),

		SMSFailureRate:    getfloat("SMS_FAILURE_RATE", 0.05),
		SocialFailureRate: getfloat("SOCIAL_FAILURE_RATE", 0.10),
		SMSReceipts:       getenv("SMS_DELIVERY_RECEIPTS", "false") == "true",

		WorkerPollInterval: getduration("WORKER_POLL_INTERVAL", 800*time.Millisecond),
		AlertReceiptDelay:  getduration("ALERT_RECEIPT_DELAY", 30*time.Second),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("missing env: DATABASE_URL")
	}
	if cfg.RequireSession && cfg.JWTSecret == "" {
		return cfg, errors.New("REQUIRE_SESSION needs JWT_SECRET")
	}
	return cfg, nil
}

// Client is the configuration of the command-line client.
type Client struct {
	APIURL    string
	StateFile string
	LogLevel  string
}

func LoadClient() Client {
	_ = godotenv.Load()

	stateFile := getenv("RIGHTGUARD_STATE_FILE", "")
	if stateFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		stateFile = filepath.Join(dir, "rightguard", "state.json")
	}

	return Client{
		APIURL:    strings.TrimRight(getenv("RIGHTGUARD_API_URL", "http://localhost:8080/api"), "/"),
		StateFile: stateFile,
		LogLevel:  getenv("LOG_LEVEL", "warn"),
	}
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getfloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(getenv(key, ""), 64)
	if err != nil || f < 0 || f > 1 {
		return def
	}
	return f
}

func getduration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getenv(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
