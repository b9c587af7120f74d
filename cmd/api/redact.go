package main

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[redacted]"

var inlinePassword = regexp.MustCompile(`(?i)(password=)[^\s&]+`)

// redactURL masks the password of a connection URL for logging. Anything that
// is not a URL, such as a SQLite path, is hidden entirely.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return redacted
	}
	return u.Redacted()
}

// sanitizeError rewrites err's message so none of secrets, nor any inline
// password=... pair, survives into logs.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, s := range secrets {
		if s != "" {
			msg = strings.ReplaceAll(msg, s, redactURL(s))
		}
	}
	return inlinePassword.ReplaceAllString(msg, "${1}xxxxx")
}
