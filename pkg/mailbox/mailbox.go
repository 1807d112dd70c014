// Package mailbox reads messages from an IMAP folder.
package mailbox

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	imap "github.com/BrianLeishman/go-imap"
	"github.com/rotisserie/eris"
)

const fetchBatchSize = 20

// Config holds IMAP connection settings.
type Config struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Folder   string `yaml:"folder" mapstructure:"folder"`
}

// Message is one fetched mail message. ID is the RFC Message-ID header when
// the server supplies one, otherwise a folder/UID fallback that is stable
// for the life of the mailbox.
type Message struct {
	ID         string
	UID        int
	Sender     string
	Subject    string
	ReceivedAt time.Time
	Text       string
	HTML       string
}

// Client is a connected IMAP session scoped to one folder.
type Client struct {
	dialer *imap.Dialer
	folder string
}

// Connect dials the server, authenticates and selects the folder.
func Connect(cfg Config) (*Client, error) {
	if cfg.Host == "" || cfg.Username == "" {
		return nil, eris.New("mailbox: host and username are required")
	}
	port := cfg.Port
	if port == 0 {
		port = 993
	}
	folder := cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}

	d, err := imap.New(cfg.Username, cfg.Password, cfg.Host, port)
	if err != nil {
		return nil, eris.Wrapf(err, "mailbox: connect %s", cfg.Host)
	}
	if err := d.SelectFolder(folder); err != nil {
		d.Close()
		return nil, eris.Wrapf(err, "mailbox: select folder %s", folder)
	}
	return &Client{dialer: d, folder: folder}, nil
}

// Close terminates the IMAP session.
func (c *Client) Close() error {
	if c.dialer != nil {
		c.dialer.Close()
	}
	return nil
}

// Search returns the folder's messages in the [since, before) window in UID
// order, capped at max when max is positive. before and since may be zero to
// leave that side of the window open.
func (c *Client) Search(ctx context.Context, since, before time.Time, max int) ([]Message, error) {
	uids, err := c.dialer.GetUIDs(searchCriteria(since, before))
	if err != nil {
		return nil, eris.Wrap(err, "mailbox: search")
	}
	sort.Ints(uids)
	if max > 0 && len(uids) > max {
		uids = uids[:max]
	}

	messages := make([]Message, 0, len(uids))
	for start := 0; start < len(uids); start += fetchBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "mailbox: search canceled")
		}
		end := start + fetchBatchSize
		if end > len(uids) {
			end = len(uids)
		}

		fetched, err := c.dialer.GetEmails(uids[start:end]...)
		if err != nil {
			return nil, eris.Wrap(err, "mailbox: fetch batch")
		}
		for _, uid := range uids[start:end] {
			email, ok := fetched[uid]
			if !ok || email == nil {
				continue
			}
			messages = append(messages, c.convert(uid, email))
		}
	}
	return messages, nil
}

func (c *Client) convert(uid int, email *imap.Email) Message {
	id := strings.TrimSpace(email.MessageID)
	if id == "" {
		id = fmt.Sprintf("%s/%d", c.folder, uid)
	}
	return Message{
		ID:         id,
		UID:        uid,
		Sender:     formatAddresses(email.From),
		Subject:    email.Subject,
		ReceivedAt: email.Received,
		Text:       email.Text,
		HTML:       email.HTML,
	}
}

// searchCriteria renders an IMAP SEARCH expression for the window. BEFORE is
// exclusive per the protocol; both bounds compare on the server's date.
func searchCriteria(since, before time.Time) string {
	var parts []string
	if !since.IsZero() {
		parts = append(parts, "SINCE "+since.Format("02-Jan-2006"))
	}
	if !before.IsZero() {
		parts = append(parts, "BEFORE "+before.Format("02-Jan-2006"))
	}
	if len(parts) == 0 {
		return "ALL"
	}
	return strings.Join(parts, " ")
}

func formatAddresses(addrs imap.EmailAddresses) string {
	var parts []string
	for addr, name := range addrs {
		if name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", name, addr))
		} else {
			parts = append(parts, addr)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
