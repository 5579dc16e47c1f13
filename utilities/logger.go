package utilities

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger é o logger do processo. Já vem configurado para que pacotes possam logar antes do InitLogger.
var Logger = newLogger(logrus.InfoLevel)

func newLogger(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})
	return l
}

// InitLogger inicializa o logger com o nível configurado (debug, info, warn, error)
func InitLogger(level string) error {
	lvl := logrus.InfoLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("nível de log inválido %q: %w", level, err)
		}
		lvl = parsed
	}
	Logger.SetLevel(lvl)
	return nil
}

// LogRequest registra informações sobre a requisição HTTP
func LogRequest(method, path, remoteAddr string, status int, duration time.Duration) {
	Logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"remote":   remoteAddr,
		"status":   status,
		"duration": duration,
	}).Info("requisição")
}

// LogError registra erros com o contexto em que aconteceram
func LogError(err error, context string) {
	Logger.WithError(err).Error(context)
}

// LogDebug registra informações de debug
func LogDebug(format string, v ...interface{}) {
	Logger.Debugf(format, v...)
}

// LogInfo registra informações gerais
func LogInfo(format string, v ...interface{}) {
	Logger.Infof(format, v...)
}
