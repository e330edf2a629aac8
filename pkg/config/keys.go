package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "oticaflow"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "OTICAFLOW_DB_DSN"
	EnvDBHost = "OTICAFLOW_DB_HOST"
	EnvDBUser = "OTICAFLOW_DB_USER"
	EnvDBName = "OTICAFLOW_DB_NAME"
)

const (
	EnvAppEnv     = "OTICAFLOW_APP_ENV"
	EnvPort       = "OTICAFLOW_APP_PORT"
	EnvRedisURL   = "OTICAFLOW_REDIS_URL"
	EnvJWTSecret  = "OTICAFLOW_JWT_SECRET"
	EnvJWTIssuer  = "OTICAFLOW_JWT_ISSUER"
	EnvJWTExpMins = "OTICAFLOW_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
