package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ucredit/internal/flagx"
	"github.com/dmitrijs2005/ucredit/internal/timex"
)

// JsonConfig is the on-disk shape of a configuration file. Durations use
// timex.Duration and accept both "1m" strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	OutboxPath                  string         `json:"outbox_path"`
	ReconcileInterval           timex.Duration `json:"reconcile_interval"`
	ReconcileBatchSize          int            `json:"reconcile_batch_size"`
	LogBackend                  string         `json:"log_backend"`
	SeedSamples                 bool           `json:"seed_samples"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c or -config into config. Without
// either flag nothing is loaded. An unreadable or invalid file panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.OutboxPath = c.OutboxPath
	config.ReconcileInterval = c.ReconcileInterval.Duration
	config.ReconcileBatchSize = c.ReconcileBatchSize
	config.LogBackend = c.LogBackend
	config.SeedSamples = c.SeedSamples
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
