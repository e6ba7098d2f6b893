package config

const (
	// EnvPrefix namespaces every environment variable the app reads.
	EnvPrefix = "GOALMATES"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GOALMATES_DB_DSN"
	EnvDBHost = "GOALMATES_DB_HOST"
	EnvDBUser = "GOALMATES_DB_USER"
	EnvDBName = "GOALMATES_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
