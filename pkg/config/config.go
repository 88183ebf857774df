package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Idempotency   IdempotencyConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Events        EventsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Kafka         KafkaConfig
	Sendgrid      SendgridConfig
	Outbox        OutboxConfig
	Maintenance   MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Events.validate(cfg.GCP, cfg.Kafka); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AURA_APP_ENV" required:"true"`
	Port         string `envconfig:"AURA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AURA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AURA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"AURA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AURA_DB_DSN"`
	Driver string `envconfig:"AURA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AURA_DB_HOST"`
	LegacyPort     int    `envconfig:"AURA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AURA_DB_USER"`
	LegacyPassword string `envconfig:"AURA_DB_PASSWORD"`
	LegacyName     string `envconfig:"AURA_DB_NAME"`
	LegacySSLMode  string `envconfig:"AURA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AURA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AURA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AURA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AURA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// UsesMongo reports whether the document store is served by MongoDB instead of gorm.
func (db DBConfig) UsesMongo() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverMongo)
}

// UsesSQLite reports whether gorm should open a sqlite file instead of postgres.
func (db DBConfig) UsesSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type MongoConfig struct {
	URI            string        `envconfig:"AURA_MONGO_URI" default:"mongodb://localhost:27017"`
	Database       string        `envconfig:"AURA_MONGO_DATABASE" default:"aura"`
	ConnectTimeout time.Duration `envconfig:"AURA_MONGO_CONNECT_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AURA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AURA_REDIS_ADDR"`
	Password     string        `envconfig:"AURA_REDIS_PASSWORD"`
	DB           int           `envconfig:"AURA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AURA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AURA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AURA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AURA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AURA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AURA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AURA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AURA_JWT_EXPIRATION_MINUTES" default:"43200"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AURA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AURA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AURA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AURA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AURA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AURA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AURA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AURA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AURA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AURA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AURA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type IdempotencyConfig struct {
	OrderTTL time.Duration `envconfig:"AURA_IDEMPOTENCY_ORDER_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"AURA_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AURA_AUTO_MIGRATE" default:"false"`
	SeedOnBoot  bool `envconfig:"AURA_SEED_ON_BOOT" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"AURA_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// EventsConfig selects the transport order events travel over.
type EventsConfig struct {
	Backend string `envconfig:"AURA_EVENTS_BACKEND" default:"log"`
}

func (e EventsConfig) validate(gcp GCPConfig, kafka KafkaConfig) error {
	switch strings.ToLower(strings.TrimSpace(e.Backend)) {
	case EventsBackendLog, "":
		return nil
	case EventsBackendPubSub:
		if strings.TrimSpace(gcp.ProjectID) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvEventsBackend, EventsBackendPubSub)
		}
		return nil
	case EventsBackendKafka:
		if len(kafka.Brokers) == 0 {
			return fmt.Errorf("%s is required when %s=%s", EnvKafkaBrokers, EnvEventsBackend, EventsBackendKafka)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvEventsBackend, e.Backend)
	}
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AURA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"AURA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AURA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"AURA_PUBSUB_ORDERS_TOPIC" default:"aura-order-events"`
	OrdersSubscription string `envconfig:"AURA_PUBSUB_ORDERS_SUBSCRIPTION" default:"aura-order-events-worker"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"AURA_KAFKA_BROKERS"`
	OrdersTopic  string        `envconfig:"AURA_KAFKA_ORDERS_TOPIC" default:"aura.order-events"`
	GroupID      string        `envconfig:"AURA_KAFKA_GROUP_ID" default:"aura-worker"`
	WriteTimeout time.Duration `envconfig:"AURA_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"AURA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"AURA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"AURA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"AURA_OUTBOX_RETENTION" default:"720h"`
}

type MaintenanceConfig struct {
	Interval     time.Duration `envconfig:"AURA_MAINTENANCE_INTERVAL" default:"6h"`
	LockTTL      time.Duration `envconfig:"AURA_MAINTENANCE_LOCK_TTL" default:"1h"`
	DLQRetention time.Duration `envconfig:"AURA_MAINTENANCE_DLQ_RETENTION" default:"2160h"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"AURA_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"AURA_SENDGRID_FROM_EMAIL" default:"orders@aura.com"`
	FromName    string `envconfig:"AURA_SENDGRID_FROM_NAME" default:"Aura Apparel"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.UsesMongo() {
		return nil
	}
	if db.UsesSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
