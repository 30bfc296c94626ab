package commands

import (
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/activerest-io/activerest/pkg/activerest"
)

// cliLogger adapts hclog to the activerest logger.
type cliLogger struct {
	logger hclog.Logger
}

func newCLILogger() activerest.Logger {
	return &cliLogger{
		logger: hclog.New(&hclog.LoggerOptions{
			Name:   "arc",
			Level:  hclog.Debug,
			Output: os.Stderr,
		}),
	}
}

func flatten(fields map[string]interface{}) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}

	return args
}

func (l *cliLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, flatten(fields)...)
}

func (l *cliLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, flatten(fields)...)
}

func (l *cliLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, flatten(fields)...)
}

func (l *cliLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, flatten(fields)...)
}
