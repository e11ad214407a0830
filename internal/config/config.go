package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string
	ServiceName   string

	StoreDriver string
	DataDir     string
	MongoURI    string
	MongoDB     string

	RedisAddr    string
	KafkaBrokers []string
	ViewsTopic   string

	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	JWTExpiration time.Duration

	BlobDriver              string
	UploadDir               string
	PublicBaseURL           string
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	FirebaseBucket          string
	ModerationEnabled       bool
	MaxUploadSizeMB         int64

	CORSAllowedOrigins []string
	AuthRateLimit      int
	AuthRateWindow     time.Duration
	RecaptchaSecret    string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		ServiceName:   getEnv("SERVICE_NAME", "batchboard-api"),

		StoreDriver: getEnv("STORE_DRIVER", "memory"),
		DataDir:     getEnv("DATA_DIR", ""),
		MongoURI:    getEnv("MONGO_URI", ""),
		MongoDB:     getEnv("MONGO_DB", "batchboard"),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		ViewsTopic:   getEnv("KAFKA_VIEWS_TOPIC", "profile.viewed"),

		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTIssuer:     getEnv("JWT_ISSUER", "batchboard"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "batchboard-web"),
		JWTExpiration: getEnvDuration("JWT_EXPIRATION", 24*time.Hour),

		BlobDriver:              getEnv("BLOB_DRIVER", "local"),
		UploadDir:               getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL:           strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		FirebaseBucket:          getEnv("FIREBASE_BUCKET", ""),
		ModerationEnabled:       getEnvBool("MODERATION_ENABLED", false),
		MaxUploadSizeMB:         int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 10)),

		CORSAllowedOrigins: getEnvListDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AuthRateLimit:      getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:     getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		RecaptchaSecret:    getEnv("RECAPTCHA_SECRET", ""),
	}
}

// ViewsViaKafka reports whether profile views should be published to Kafka.
// Only the Mongo store is shared with the view worker; with any other store
// published views would never be counted.
func (c *Config) ViewsViaKafka() bool {
	return len(c.KafkaBrokers) > 0 && c.StoreDriver == "mongo"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	return getEnvListDefault(key, nil)
}

func getEnvListDefault(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
