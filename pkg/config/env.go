package config

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"

	EnvAppEnv             = "PRICELIST_APP_ENV"
	EnvLogLevel           = "PRICELIST_LOG_LEVEL"
	EnvLogFormat          = "PRICELIST_LOG_FORMAT"
	EnvStorageBackend     = "PRICELIST_STORAGE_BACKEND"
	EnvDBDSN              = "PRICELIST_DB_DSN"
	EnvRedisURL           = "PRICELIST_REDIS_URL"
	EnvRedisAddr          = "PRICELIST_REDIS_ADDR"
	EnvTemplateBaseDir    = "PRICELIST_TEMPLATE_BASE_DIR"
	EnvTemplateCandidates = "PRICELIST_TEMPLATE_CANDIDATES"
	EnvExportOutputDir    = "PRICELIST_EXPORT_OUTPUT_DIR"
	EnvExportCurrencyCode = "PRICELIST_EXPORT_CURRENCY_CODE"
	EnvMetricsTextfile    = "PRICELIST_METRICS_TEXTFILE"
)
