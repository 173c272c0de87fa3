package connector

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DSNBuilder assembles a URL-style connection string for the connector config.
type DSNBuilder struct {
	scheme   string
	username string
	password string
	host     string
	port     int
	database string
	params   map[string]string
}

// NewDSNBuilder starts a DSN with the given URL scheme.
func NewDSNBuilder(scheme string) *DSNBuilder {
	return &DSNBuilder{
		scheme: scheme,
		params: make(map[string]string),
	}
}

// Auth sets the user info; an empty password emits only the user name.
func (b *DSNBuilder) Auth(username, password string) *DSNBuilder {
	b.username = username
	b.password = password
	return b
}

// Host sets the server address. Port 0 leaves it off the URL.
func (b *DSNBuilder) Host(host string, port int) *DSNBuilder {
	b.host = host
	b.port = port
	return b
}

// Database sets the URL path.
func (b *DSNBuilder) Database(name string) *DSNBuilder {
	b.database = name
	return b
}

// Param adds a single parameter; empty values are skipped.
func (b *DSNBuilder) Param(key, value string) *DSNBuilder {
	if value != "" {
		b.params[key] = value
	}
	return b
}

// Params merges params through Param.
func (b *DSNBuilder) Params(params map[string]string) *DSNBuilder {
	for k, v := range params {
		b.Param(k, v)
	}
	return b
}

// Validate checks the parts every provider needs.
func (b *DSNBuilder) Validate() error {
	if b.host == "" {
		return fmt.Errorf("host is required")
	}
	if b.port <= 0 || b.port > 65535 {
		return fmt.Errorf("invalid port: %d", b.port)
	}
	return nil
}

// Build constructs the DSN. Parameters are emitted in key order.
func (b *DSNBuilder) Build() string {
	u := url.URL{
		Scheme: b.scheme,
		Host:   b.host,
	}
	if b.port > 0 {
		u.Host = b.host + ":" + strconv.Itoa(b.port)
	}
	if b.username != "" {
		if b.password != "" {
			u.User = url.UserPassword(b.username, b.password)
		} else {
			u.User = url.User(b.username)
		}
	}
	if b.database != "" {
		u.Path = "/" + b.database
	}

	if len(b.params) > 0 {
		keys := make([]string, 0, len(b.params))
		for k := range b.params {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		var q strings.Builder
		for i, k := range keys {
			if i > 0 {
				q.WriteByte('&')
			}
			q.WriteString(url.QueryEscape(k))
			q.WriteByte('=')
			q.WriteString(url.QueryEscape(b.params[k]))
		}
		u.RawQuery = q.String()
	}

	return u.String()
}

// Redacted returns the DSN with the password masked, for logs.
func (b *DSNBuilder) Redacted() string {
	u, err := url.Parse(b.Build())
	if err != nil {
		return ""
	}
	return u.Redacted()
}

func formatSeconds(d time.Duration) string {
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return strconv.FormatInt(secs, 10)
}
