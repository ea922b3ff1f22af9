// SPDX-License-Identifier: EPL-2.0

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/ossrs/go-oryx-lib/errors"

	"github.com/ik5/samplekit/effects"
	"github.com/ik5/samplekit/objectstore"
	"github.com/ik5/samplekit/waveform"
)

// Config holds runtime configuration, loaded from environment variables.
type Config struct {
	// Workspace root for imports, projects and the preview cache.
	Workspace string

	WaveformBuckets int
	PreviewMax      time.Duration
	ReleaseMillis   int

	// DatabaseURL selects the Postgres library; empty keeps it in memory.
	DatabaseURL string

	S3 objectstore.Config
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "load %v", path)
	}
	return nil
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	return Config{
		Workspace:       envStr("SAMPLEKIT_WORKSPACE", "samplekit-data"),
		WaveformBuckets: envInt("SAMPLEKIT_WAVEFORM_BUCKETS", waveform.DefaultBuckets),
		PreviewMax:      time.Duration(envFloat("SAMPLEKIT_PREVIEW_MAX_SECONDS", effects.DefaultPreviewMax.Seconds()) * float64(time.Second)),
		ReleaseMillis:   envInt("SAMPLEKIT_RELEASE_MS", 0),

		DatabaseURL: envStr("DATABASE_URL", ""),

		S3: objectstore.Config{
			Bucket:          envStr("S3_BUCKET", ""),
			Endpoint:        envStr("S3_ENDPOINT", ""),
			Region:          envStr("S3_REGION", "us-east-1"),
			AccessKeyID:     envStr("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: envStr("S3_SECRET_ACCESS_KEY", ""),
			Prefix:          envStr("S3_KEY_PREFIX", objectstore.DefaultPrefix),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
