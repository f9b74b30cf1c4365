package constants

const (
	CookieKeySecretToken = "restorank_admin"
	HeaderAuthorization  = "Authorization"
	CtxKeyAdmin          = "admin"
)

// viper keys
const (
	ViperSecretKey = "admin.secret"

	ViperHTTPAddr        = "http.addr"
	ViperHTTPAllowOrigin = "http.allow_origins"

	ViperDBDriver = "db.driver"
	ViperDBDSN    = "db.dsn"

	ViperLogLevel = "log.level"

	ViperPlacesAPIKey    = "places.api_key"
	ViperPlacesBaseURL   = "places.base_url"
	ViperPlacesRateLimit = "places.rate_per_second"

	ViperPushEndpoint = "push.endpoint"
	ViperPushToken    = "push.token"

	ViperScheduleCron     = "schedule.cron"
	ViperScheduleTimezone = "schedule.timezone"

	ViperContactsConcurrency = "contacts.concurrency"
	ViperContactsTimeout     = "contacts.timeout"

	ViperCurationTopN = "curation.top_n"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
