package config

import (
	"os"

	"github.com/go-yaml/yaml"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    Server    `yaml:"server"`
	RateLimit RateLimit `yaml:"rateLimit"`
}

type Server struct {
	Listen         string `yaml:"listen" envconfig:"LISTEN"`
	PostgresDsn    string `yaml:"postgresDsn" envconfig:"POSTGRES_DSN"`
	SqlitePath     string `yaml:"sqlitePath" envconfig:"SQLITE_PATH"`
	RedisAddr      string `yaml:"redisAddr" envconfig:"REDIS_ADDR"`
	RedisPassword  string `yaml:"redisPassword" envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `yaml:"redisDB" envconfig:"REDIS_DB"`
	MemcachedAddr  string `yaml:"memcachedAddr" envconfig:"MEMCACHED_ADDR"`
	PaymentGateURL string `yaml:"paymentGateURL" envconfig:"PAYMENT_GATE_URL"`
	AdminKeyHash   string `yaml:"adminKeyHash" envconfig:"ADMIN_KEY_HASH"`
	EnableTrace    bool   `yaml:"enableTrace" envconfig:"ENABLE_TRACE"`
	TraceEndpoint  string `yaml:"traceEndpoint" envconfig:"TRACE_ENDPOINT"`
}

// RateLimit holds requests-per-minute budgets for the public surface.
// Zero disables the limiter for that group.
type RateLimit struct {
	PurchasePerMinute float64 `yaml:"purchasePerMinute" envconfig:"RATE_PURCHASE_PER_MINUTE"`
	ReadPerMinute     float64 `yaml:"readPerMinute" envconfig:"RATE_READ_PER_MINUTE"`
}

// Load reads the yaml config file and applies SPKKN_* environment
// overrides on top.
func Load(path string) (Config, error) {
	config := Config{
		Server: Server{
			Listen: ":8000",
		},
		RateLimit: RateLimit{
			PurchasePerMinute: 5,
			ReadPerMinute:     100,
		},
	}

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return Config{}, err
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	if err := envconfig.Process("spkkn", &config.Server); err != nil {
		return Config{}, err
	}
	if err := envconfig.Process("spkkn", &config.RateLimit); err != nil {
		return Config{}, err
	}

	return config, nil
}
