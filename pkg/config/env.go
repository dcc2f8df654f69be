package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "DIGISHELF"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "DIGISHELF_DB_DSN"
	EnvDBHost = "DIGISHELF_DB_HOST"
	EnvDBUser = "DIGISHELF_DB_USER"
	EnvDBName = "DIGISHELF_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
