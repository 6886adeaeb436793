package config

const EnvPrefix = "SORBETERO"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "SORBETERO_APP_ENV"
	EnvPort   = "SORBETERO_APP_PORT"
	EnvDBDSN  = "SORBETERO_DB_DSN"
	EnvDBHost = "SORBETERO_DB_HOST"
	EnvDBUser = "SORBETERO_DB_USER"
	EnvDBName = "SORBETERO_DB_NAME"
)

var fallbackDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
