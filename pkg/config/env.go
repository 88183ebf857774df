package config

const EnvPrefix = "AURA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DBDriverMongo    = "mongo"

	EventsBackendLog    = "log"
	EventsBackendPubSub = "pubsub"
	EventsBackendKafka  = "kafka"
)

const (
	EnvAppEnv     = "AURA_APP_ENV"
	EnvPort       = "AURA_APP_PORT"
	EnvDBDSN      = "AURA_DB_DSN"
	EnvDBDriver   = "AURA_DB_DRIVER"
	EnvDBHost     = "AURA_DB_HOST"
	EnvDBUser     = "AURA_DB_USER"
	EnvDBName     = "AURA_DB_NAME"
	EnvRedisURL   = "AURA_REDIS_URL"
	EnvJWTSecret  = "AURA_JWT_SECRET"
	EnvJWTIssuer  = "AURA_JWT_ISSUER"
	EnvJWTExpMins = "AURA_JWT_EXPIRATION_MINUTES"

	EnvEventsBackend = "AURA_EVENTS_BACKEND"
	EnvGCPProjectID  = "AURA_GCP_PROJECT_ID"
	EnvKafkaBrokers  = "AURA_KAFKA_BROKERS"

	EnvClientAPIURL         = "AURA_CLIENT_API_URL"
	EnvClientStatePath      = "AURA_CLIENT_STATE_PATH"
	EnvClientRequestTimeout = "AURA_CLIENT_REQUEST_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
