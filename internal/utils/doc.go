// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses ConfigurationLoader and LoggerFactory, which integrate Viper,
// dotenv-provided environment variables, and zap logging for the sigaudit CLI.
package utils
