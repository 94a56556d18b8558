package utils

import (
	"io"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger process wide logger
var Logger = zerolog.New(io.Discard)

// InitLogger initialises the logger; debug mode writes colored console output
func InitLogger(debug bool) {
	var output io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if debug {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}

	Logger = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger().
		Level(level)

	Logger.Info().Bool("debug", debug).Msg("logger initialised")
}

// LogApiRequest logs an incoming API request; credentials are truncated
func LogApiRequest(method, path string, params url.Values, headers map[string]string) {
	headers["Authorization"] = ShortSecret(headers["Authorization"])
	if headers["Authorization"] == "" {
		delete(headers, "Authorization")
	}

	masked := make(url.Values, len(params))
	for k, v := range params {
		if k != "token" {
			masked[k] = v
			continue
		}
		short := make([]string, len(v))
		for i, s := range v {
			short[i] = ShortSecret(s)
		}
		masked[k] = short
	}

	Logger.Debug().
		Str("method", method).
		Str("url", path).
		Interface("params", masked).
		Interface("headers", headers).
		Msg("api request")
}

// LogApiResponse logs the response of an API request
func LogApiResponse(method, url string, statusCode int, responseTime time.Duration) {
	event := Logger.Info()
	if statusCode >= 500 {
		event = Logger.Error()
	} else if statusCode >= 400 {
		event = Logger.Warn()
	}
	event.
		Str("method", method).
		Str("url", url).
		Int("statusCode", statusCode).
		Dur("responseTime", responseTime).
		Msg("api response")
}

// LogError logs an error with its context
func LogError(err error, context map[string]interface{}, message string) {
	Logger.Error().
		Err(err).
		Interface("context", context).
		Msg(message)
}

// LogDbOperation logs a store operation at debug level
func LogDbOperation(operation string, collection string, query interface{}, result interface{}) {
	Logger.Debug().
		Str("operation", operation).
		Str("collection", collection).
		Interface("query", query).
		Interface("result", result).
		Msg("db operation")
}

// ShortSecret keeps the first 15 characters of a credential for logging
func ShortSecret(s string) string {
	if len(s) > 15 {
		return s[:15] + "..."
	}
	return s
}
