package natsclient

import (
	"fmt"
	"log/slog"
	"time"
)

// ClientOption configures a Client in NewClient
type ClientOption func(*Client) error

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithName sets the connection name shown by the server
func WithName(name string) ClientOption {
	return func(c *Client) error {
		c.clientName = name
		return nil
	}
}

// WithTimeout bounds a single dial to the server
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive: %v", d)
		}
		c.timeout = d
		return nil
	}
}

// WithToken authenticates with a token. Empty leaves the connection anonymous.
func WithToken(token string) ClientOption {
	return func(c *Client) error {
		if token != "" && c.username != "" {
			return fmt.Errorf("token and user credentials are mutually exclusive")
		}
		c.token = token
		return nil
	}
}

// WithCredentials authenticates with a user and password. Both or neither
// must be set.
func WithCredentials(username, password string) ClientOption {
	return func(c *Client) error {
		if (username == "") != (password == "") {
			return fmt.Errorf("user and password must be set together")
		}
		if username != "" && c.token != "" {
			return fmt.Errorf("token and user credentials are mutually exclusive")
		}
		c.username = username
		c.password = password
		return nil
	}
}
