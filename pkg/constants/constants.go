// Package constants provides shared constants for the retirex application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12
	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100
)

// Projection policy defaults
const (
	// DefaultOfficialAnnualRate is the conservative scenario rate
	DefaultOfficialAnnualRate = 0.18
	// DefaultRealisticAnnualRate is the realistic scenario rate in local currency
	DefaultRealisticAnnualRate = 0.30
	// DefaultUSDAnnualRate is the realistic scenario rate for USD-denominated quotes
	DefaultUSDAnnualRate = 0.02
	// DefaultTariffLoading is the tariff load stripped from a contribution (0.6%)
	DefaultTariffLoading = 1.006
	// DefaultExpenseCharge is the expense charge removed after the tariff load (10%)
	DefaultExpenseCharge = 0.10
	// DefaultMinimumContribution is the smallest accepted monthly contribution
	DefaultMinimumContribution = 40000.0
	// DefaultProjectionMethod is the canonical computation method
	DefaultProjectionMethod = "actuarial"
)

// Projection input limits
const (
	// MaxAge is the largest accepted current or retirement age
	MaxAge = 120
	// MaxMonthlyContribution is the largest accepted monthly contribution
	MaxMonthlyContribution = 1e12
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"
	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "retirex.yaml"
	// EnvPrefix prefixes every environment override (RETIREX_SERVER_ADDRESS, ...)
	EnvPrefix = "RETIREX"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"
	// DefaultMaxBodySizeBytes is the default maximum JSON request body (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024
	// DefaultShutdownTimeoutSeconds bounds graceful shutdown
	DefaultShutdownTimeoutSeconds = 10
	// ReadyBanner is returned by GET / when the engine is up
	ReadyBanner = "Retirex Engine Ready ✅"
)

// Chat defaults
const (
	// DefaultChatModel is the chat-completions model
	DefaultChatModel = "gpt-4o-mini"
	// DefaultChatMaxTokens caps the reply length
	DefaultChatMaxTokens = 150
	// DefaultChatBaseURL is the chat-completions API root
	DefaultChatBaseURL = "https://api.openai.com/v1"
	// DefaultChatTimeoutSeconds bounds a single model call
	DefaultChatTimeoutSeconds = 30
	// DefaultChatMaxMessages caps the accepted conversation history
	DefaultChatMaxMessages = 40
	// DefaultSystemPrompt is sent ahead of every conversation
	DefaultSystemPrompt = `Sos "Retirex IA", asesor de seguros de retiro. Garantía: 4% anual. Escenarios: 18% y 30%. El aporte mínimo obligatorio es $40.000. Sé breve.`
)

// Spreadsheet defaults
const (
	// DefaultKeywordRange holds keyword (A) and answer (B) columns
	DefaultKeywordRange = "Respuestas!A:B"
	// DefaultConversationRange receives one row per chat exchange
	DefaultConversationRange = "Conversaciones!A:D"
	// DefaultQuoteRange receives one row per successful projection
	DefaultQuoteRange = "Cotizaciones!A:H"
	// DefaultKeywordCacheTTLSeconds is how long a keyword answer stays cached
	DefaultKeywordCacheTTLSeconds = 300
	// DefaultSheetsTimeoutSeconds bounds a single quote append
	DefaultSheetsTimeoutSeconds = 2
)
