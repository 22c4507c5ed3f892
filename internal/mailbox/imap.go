package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Message is a minimal representation of one fetched email.
type Message struct {
	UID     imap.UID
	From    string
	Subject string
	Date    time.Time

	// Raw is the full RFC822 message bytes (headers + body), fetched with
	// BODY.PEEK[] so the message is not marked \Seen.
	Raw []byte
}

// Client wraps an authenticated IMAP session on a selected INBOX.
type Client struct {
	c *imapclient.Client

	// release stops the cancel watchdog once the client is closed, so the
	// goroutine does not linger for the life of the context.
	release     chan struct{}
	releaseOnce sync.Once
}

// Dial connects over TLS, logs in, and selects INBOX. Any failure here is a
// connection-class error: the caller aborts the run before touching state.
func Dial(ctx context.Context, addr, username, password string) (*Client, error) {
	if addr == "" {
		return nil, errors.New("imap addr is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: host,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	cl := &Client{c: c, release: make(chan struct{})}

	// Best-effort close on context cancel, released when the client closes.
	go closeOnCancel(ctx, cl.release, c.Close)

	if err := c.Login(username, password).Wait(); err != nil {
		cl.shutdown()
		return nil, fmt.Errorf("imap login: %w", err)
	}

	if _, err := c.Select("INBOX", &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		cl.shutdown()
		return nil, fmt.Errorf("imap select inbox: %w", err)
	}

	return cl, nil
}

// closeOnCancel closes the connection if ctx is canceled before release
// closes.
func closeOnCancel(ctx context.Context, release <-chan struct{}, closeConn func() error) {
	select {
	case <-ctx.Done():
		_ = closeConn()
	case <-release:
	}
}

func (cl *Client) shutdown() {
	cl.releaseOnce.Do(func() { close(cl.release) })
	_ = cl.c.Close()
}

// Close logs out then closes the connection.
func (cl *Client) Close() {
	if cl == nil || cl.c == nil {
		return
	}
	if err := cl.c.Logout().Wait(); err != nil {
		log.Printf("[mailbox] logout: %v", err)
	}
	cl.shutdown()
}

// FetchFrom pulls up to max messages whose From header contains sender and
// that arrived after since, newest first, with envelope and raw bytes.
func (cl *Client) FetchFrom(ctx context.Context, sender string, since time.Time, max int) ([]Message, error) {
	if cl == nil || cl.c == nil {
		return nil, errors.New("imap client is nil")
	}
	if max <= 0 {
		max = 50
	}

	criteria := &imap.SearchCriteria{
		Header: []imap.SearchCriteriaHeaderField{
			{Key: "From", Value: sender},
		},
		Since: since,
	}

	searchData, err := cl.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return []Message{}, nil
	}

	// Newest first, capped.
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := cl.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:          true,
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}

		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		var m Message
		m.UID = buf.UID
		if buf.Envelope != nil {
			m.Subject = buf.Envelope.Subject
			m.Date = buf.Envelope.Date
			m.From = joinAddrs(buf.Envelope.From)
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.Raw = append([]byte(nil), b...)
		}
		out = append(out, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

func joinAddrs(addrs []imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for i := range addrs {
		a := &addrs[i]
		addr := strings.TrimSpace(a.Addr())
		if addr == "" {
			addr = strings.TrimSpace(a.Name)
		}
		if addr != "" {
			parts = append(parts, addr)
		}
	}
	return strings.Join(parts, ", ")
}
