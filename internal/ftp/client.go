// Package ftp adapts a single FTP/FTPS control connection to the session
// capability set the deploy engine consumes.
package ftp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strings"
	"time"

	goftp "github.com/jlaffaye/ftp"
)

const dialTimeout = 10 * time.Second

type Client struct {
	conn *goftp.ServerConn

	// The library negotiates a passive data channel per transfer; the
	// flag records the engine's asserted mode.
	passive bool
}

func Dial(host string, port int, secure bool) (*Client, error) {
	opts := []goftp.DialOption{goftp.DialWithTimeout(dialTimeout)}
	if secure {
		opts = append(opts, goftp.DialWithExplicitTLS(&tls.Config{ServerName: host}))
	}

	conn, err := goftp.Dial(fmt.Sprintf("%s:%d", host, port), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s:%d: %w", host, port, err)
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Login(user, password string) error {
	if err := c.conn.Login(user, password); err != nil {
		return fmt.Errorf("failed to authenticate as %s: %w", user, err)
	}

	return nil
}

func (c *Client) ChangeDir(path string) error {
	return c.conn.ChangeDir(path)
}

// DirExists probes a path by changing into it and back. A 550 reply means
// the path is absent; anything else is a transport error.
func (c *Client) DirExists(path string) (bool, error) {
	cur, err := c.conn.CurrentDir()
	if err != nil {
		return false, fmt.Errorf("failed to read current directory: %w", err)
	}

	if err := c.conn.ChangeDir(path); err != nil {
		if isNotAvailable(err) {
			return false, nil
		}
		return false, err
	}

	if err := c.conn.ChangeDir(cur); err != nil {
		return true, fmt.Errorf("failed to restore directory %s: %w", cur, err)
	}

	return true, nil
}

// MakeDirAll creates every missing segment of path, ignoring segments that
// already exist.
func (c *Client) MakeDirAll(path string) error {
	cur := ""
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		cur += "/" + seg
		if err := c.conn.MakeDir(cur); err != nil {
			exists, probeErr := c.DirExists(cur)
			if probeErr == nil && exists {
				continue
			}
			return fmt.Errorf("failed to create %s: %w", cur, err)
		}
	}

	return nil
}

func (c *Client) NameList(path string) ([]string, error) {
	return c.conn.NameList(path)
}

func (c *Client) FileSize(path string) (int64, error) {
	return c.conn.FileSize(path)
}

func (c *Client) ModTime(path string) (time.Time, error) {
	return c.conn.GetTime(path)
}

func (c *Client) SetPassive(enabled bool) {
	c.passive = enabled
}

func (c *Client) Upload(name string, r io.Reader) error {
	return c.conn.Stor(name, r)
}

func (c *Client) ReadFile(path string) (string, error) {
	resp, err := c.conn.Retr(path)
	if err != nil {
		return "", err
	}

	defer func(resp *goftp.Response) {
		_ = resp.Close()
	}(resp)

	data, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return string(data), nil
}

func (c *Client) WriteFile(path string, content string) error {
	return c.conn.Stor(path, strings.NewReader(content))
}

func (c *Client) Quit() error {
	return c.conn.Quit()
}

func isNotAvailable(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code == goftp.StatusFileUnavailable
	}

	return false
}
