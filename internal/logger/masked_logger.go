package logger

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	APIKey   = "api_key"
	Password = "password"
	Token    = "token"
)

// MaskSensitiveInfo keeps the first and last four characters of a secret.
func MaskSensitiveInfo(info string, infoType string) string {
	if info == "" {
		return ""
	}

	switch infoType {
	case APIKey, Password, Token:
		if len(info) <= 8 {
			return "****"
		}
		return info[:4] + strings.Repeat("*", len(info)-8) + info[len(info)-4:]
	default:
		return info
	}
}

// MaskURL hides the userinfo password and credential-looking query values of
// an endpoint URL. Unparseable input is returned unchanged.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), MaskSensitiveInfo(pw, Password))
		}
	}
	if u.RawQuery != "" {
		q := u.Query()
		for key, values := range q {
			if !isSensitiveField(key) && !strings.EqualFold(key, "key") && !strings.EqualFold(key, "sig") {
				continue
			}
			for i, v := range values {
				values[i] = MaskSensitiveInfo(v, Token)
			}
			q[key] = values
		}
		u.RawQuery = q.Encode()
	}
	// keep the stars readable instead of percent-encoded
	return strings.ReplaceAll(u.String(), "%2A", "*")
}

// NewMaskedLogger wraps baseLogger so sensitive string fields are masked before encoding.
func NewMaskedLogger(baseLogger *zap.Logger) *zap.Logger {
	return baseLogger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &maskedCore{Core: core}
	}))
}

type maskedCore struct {
	zapcore.Core
}

func (c *maskedCore) With(fields []zapcore.Field) zapcore.Core {
	return &maskedCore{Core: c.Core.With(maskFields(fields))}
}

func (c *maskedCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *maskedCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(entry, maskFields(fields))
}

func maskFields(fields []zapcore.Field) []zapcore.Field {
	for i, field := range fields {
		if field.Type != zapcore.StringType {
			continue
		}
		switch {
		case isSensitiveField(field.Key):
			fields[i] = zap.String(field.Key, MaskSensitiveInfo(field.String, getFieldType(field.Key)))
		case isURLField(field.Key):
			fields[i] = zap.String(field.Key, MaskURL(field.String))
		}
	}
	return fields
}

func isSensitiveField(key string) bool {
	key = strings.ToLower(key)
	return strings.Contains(key, "api_key") ||
		strings.Contains(key, "apikey") ||
		strings.Contains(key, "password") ||
		strings.Contains(key, "token") ||
		strings.Contains(key, "secret") ||
		strings.Contains(key, "auth")
}

func isURLField(key string) bool {
	key = strings.ToLower(key)
	return key == "endpoint" || strings.Contains(key, "url")
}

func getFieldType(key string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "api_key") || strings.Contains(key, "apikey") {
		return APIKey
	}
	if strings.Contains(key, "password") {
		return Password
	}
	if strings.Contains(key, "token") || strings.Contains(key, "secret") || strings.Contains(key, "auth") {
		return Token
	}
	return ""
}
