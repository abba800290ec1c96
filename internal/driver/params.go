package driver

import (
	"net"
	"net/url"
	"strconv"
)

// ConnectionParams are the individual fields a client may send instead of a
// full connection string.
type ConnectionParams struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode,omitempty"`
}

// ConnectionString builds a postgresql:// URL, defaulting to
// postgres@localhost:5432/postgres.
func (p ConnectionParams) ConnectionString() string {
	host := p.Host
	if host == "" {
		host = "localhost"
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	user := p.User
	if user == "" {
		user = "postgres"
	}
	database := p.Database
	if database == "" {
		database = "postgres"
	}

	u := &url.URL{
		Scheme: "postgresql",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + database,
	}
	if p.Password != "" {
		u.User = url.UserPassword(user, p.Password)
	} else {
		u.User = url.User(user)
	}

	if p.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", p.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String()
}
