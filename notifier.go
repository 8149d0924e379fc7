package tabload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/xerrors"
)

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

// maxNotifiedRejections bounds the rejections listed in a notification.
const maxNotifiedRejections = 5

// Notifier notifies results for each event.
type Notifier interface {
	Notify(context.Context, *Result) error
}

// Result is a result for each event.
type Result struct {
	RunID   string
	Event   Event
	Handler *Handler

	// Read is the number of records given to the validator.
	Read       int
	Loaded     int64
	Rejections []Rejection

	Error    error
	Duration time.Duration
}

func (r *Result) table() string {
	if r.Handler == nil || r.Handler.Destination == nil {
		return ""
	}
	return r.Handler.Destination.Table
}

// Summary is a one-line description of the result.
func (r *Result) Summary() string {
	name := ""
	if r.Handler != nil {
		name = r.Handler.Name
	}

	if r.Error != nil {
		return fmt.Sprintf("%s handler failed to load %s: %s", name, r.Event.FullPath(), r.Error)
	}
	return fmt.Sprintf("%s handler loaded %d of %d records from %s into %s (%d rejected)",
		name, r.Loaded, r.Read, r.Event.FullPath(), r.table(), len(r.Rejections))
}

// SlackNotifier is a notifier for Slack.
type SlackNotifier struct {
	Channel   string
	IconEmoji string
	Username  string
	Token     string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

type slackMessage struct {
	Channel   string `json:"channel"`
	IconEmoji string `json:"icon_emoji,omitempty"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Notify notifies results to Slack channel.
func (n *SlackNotifier) Notify(ctx context.Context, r *Result) error {
	m := &slackMessage{
		Channel:   n.Channel,
		IconEmoji: n.IconEmoji,
		Text:      slackText(r),
		Username:  n.Username,
	}
	log.Ctx(ctx).Debug().Msgf("m = %+v", m)

	if err := n.postMessage(ctx, m); err != nil {
		return xerrors.Errorf("slack postMessage failed: %w", err)
	}

	return nil
}

func slackText(r *Result) string {
	var b strings.Builder
	b.WriteString(r.Summary())

	for i, rej := range r.Rejections {
		if i == maxNotifiedRejections {
			fmt.Fprintf(&b, "\n... and %d more", len(r.Rejections)-i)
			break
		}
		b.WriteString("\n• " + rej.String())
	}

	return b.String()
}

func (n *SlackNotifier) postMessage(ctx context.Context, m *slackMessage) error {
	l := log.Ctx(ctx)

	reqJSON, err := json.Marshal(m)
	if err != nil {
		return xerrors.Errorf("failed to marshal json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, slackPostMessageURL, bytes.NewReader(reqJSON))
	if err != nil {
		return xerrors.Errorf("failed to build http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.Token)

	c := n.HTTPClient
	if c == nil {
		c = http.DefaultClient
	}

	resp, err := c.Do(req)
	if err != nil {
		return xerrors.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return xerrors.Errorf("failed to read response body: %w", err)
	}
	l.Debug().Int("status", resp.StatusCode).Bytes("body", body).Msg("slack responded")

	if resp.StatusCode >= 400 {
		return xerrors.Errorf(
			"slack request failed with status code %d (%s)", resp.StatusCode, body)
	}

	var sres slackResponse
	if err := json.Unmarshal(body, &sres); err != nil {
		return xerrors.Errorf("failed to unmarshal response body: %w", err)
	}

	if !sres.OK {
		return xerrors.Errorf("failed to send message: %s", sres.Error)
	}

	return nil
}
