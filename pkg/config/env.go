package config

const (
	EnvPrefix = "PRODUCEHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "PRODUCEHUB_APP_ENV"
	EnvPort                   = "PRODUCEHUB_APP_PORT"
	EnvDBDSN                  = "PRODUCEHUB_DB_DSN"
	EnvDBHost                 = "PRODUCEHUB_DB_HOST"
	EnvDBUser                 = "PRODUCEHUB_DB_USER"
	EnvDBPassword             = "PRODUCEHUB_DB_PASSWORD"
	EnvDBName                 = "PRODUCEHUB_DB_NAME"
	EnvRedisURL               = "PRODUCEHUB_REDIS_URL"
	EnvJWTSecret              = "PRODUCEHUB_JWT_SECRET"
	EnvJWTIssuer              = "PRODUCEHUB_JWT_ISSUER"
	EnvJWTExpMins             = "PRODUCEHUB_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PRODUCEHUB_REFRESH_TOKEN_TTL_MINUTES"
	EnvGoogleMapsAPIKey       = "PRODUCEHUB_GOOGLE_MAPS_API_KEY"
	EnvOrdersTaxRate          = "PRODUCEHUB_ORDERS_TAX_RATE"
	EnvCronInterval           = "PRODUCEHUB_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
