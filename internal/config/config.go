package config

import (
	"os"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath   string // profile images and other uploads
	BlobPublicBase string // URL prefix the stored files are served under

	// Remote code-execution service (Judge0-compatible batch API).
	JudgeURL            string
	JudgePollIntervalMs int
	JudgeMaxWaitSec     int

	AuthHMACSecret string
	AdminUser      string
	AdminPassHash  string // bcrypt

	CORSOriginsProd []string
	CORSOriginsDev  []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeDev
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		BlobBasePath:   envOr("BLOB_BASE_PATH", "./data"),
		BlobPublicBase: envOr("BLOB_PUBLIC_BASE", "/assets"),

		JudgeURL:            envOr("JUDGE_URL", "http://localhost:2358"),
		JudgePollIntervalMs: envInt("JUDGE_POLL_INTERVAL_MS", 1500),
		JudgeMaxWaitSec:     envInt("JUDGE_MAX_WAIT_SEC", 90),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:      envOr("ADMIN_USER", "admin"),
		AdminPassHash:  envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		CORSOriginsProd: csvOr("CORS_ORIGINS_PROD", "https://app.educode.example.com"),
		CORSOriginsDev:  csvOr("CORS_ORIGINS_DEV", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
