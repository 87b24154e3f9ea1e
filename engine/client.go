package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/myxo/remu/core/logger"
	"log/slog"
)

const (
	callTimeout   = 30 * time.Second
	redialBackoff = 5 * time.Second
)

// Client talks to the decision engine over a unix socket with
// newline-delimited JSON: one request line, one response line.
type Client struct {
	address string
	dialer  net.Dialer
}

// NewClient returns a Client for the engine listening at address.
func NewClient(address string) *Client {
	return &Client{address: address}
}

type request struct {
	Op      string `json:"op"`
	ChatID  int64  `json:"chat_id,omitempty"`
	Text    string `json:"text,omitempty"`
	Token   string `json:"token,omitempty"`
	ID      int64  `json:"id,omitempty"`
	GroupID int64  `json:"group_id,omitempty"`
	User    *User  `json:"user,omitempty"`
}

type response struct {
	OK     bool            `json:"ok"`
	Code   string          `json:"code,omitempty"`
	Error  string          `json:"error,omitempty"`
	Reply  json.RawMessage `json:"reply,omitempty"`
	Lines  []string        `json:"lines,omitempty"`
	Items  []Item          `json:"items,omitempty"`
	Done   bool            `json:"done,omitempty"`
	ChatID int64           `json:"chat_id,omitempty"`
}

const codeCannotParse = "cannot_parse"

func (c *Client) call(ctx context.Context, req request) (*response, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	conn, err := c.dialer.DialContext(callCtx, "unix", c.address)
	if err != nil {
		return nil, fmt.Errorf("engine: dial %s: %w", c.address, err)
	}
	defer conn.Close()
	if deadline, ok := callCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	enc := json.NewEncoder(conn)
	if err := enc.Encode(req); err != nil {
		return nil, fmt.Errorf("engine: write %s: %w", req.Op, err)
	}

	var resp response
	if err := json.NewDecoder(bufio.NewReader(conn)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("engine: read %s reply: %w", req.Op, err)
	}
	if !resp.OK {
		if resp.Code == codeCannotParse {
			return nil, ErrCannotParse
		}
		return nil, fmt.Errorf("engine: %s failed: %s", req.Op, resp.Error)
	}
	return &resp, nil
}

func (c *Client) callReply(ctx context.Context, req request) (Reply, error) {
	resp, err := c.call(ctx, req)
	if err != nil {
		return Reply{}, err
	}
	return DecodeReply(resp.Reply)
}

func (c *Client) SubmitText(ctx context.Context, chatID int64, text string) (Reply, error) {
	return c.callReply(ctx, request{Op: "submit_text", ChatID: chatID, Text: text})
}

func (c *Client) SubmitKeyboard(ctx context.Context, chatID int64, token, contextText string) (Reply, error) {
	return c.callReply(ctx, request{Op: "submit_keyboard", ChatID: chatID, Token: token, Text: contextText})
}

func (c *Client) ListActiveEvents(ctx context.Context, chatID int64) ([]string, error) {
	resp, err := c.call(ctx, request{Op: "list_active_events", ChatID: chatID})
	if err != nil {
		return nil, err
	}
	return resp.Lines, nil
}

func (c *Client) ListRecurringEvents(ctx context.Context, chatID int64) ([]Item, error) {
	resp, err := c.call(ctx, request{Op: "list_recurring_events", ChatID: chatID})
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) DeleteRecurringEvent(ctx context.Context, id int64) (bool, error) {
	resp, err := c.call(ctx, request{Op: "delete_recurring_event", ID: id})
	if err != nil {
		return false, err
	}
	return resp.Done, nil
}

func (c *Client) ListGroups(ctx context.Context, chatID int64) ([]Item, error) {
	resp, err := c.call(ctx, request{Op: "list_groups", ChatID: chatID})
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) AddGroup(ctx context.Context, chatID int64, name string) (bool, error) {
	resp, err := c.call(ctx, request{Op: "add_group", ChatID: chatID, Text: name})
	if err != nil {
		return false, err
	}
	return resp.Done, nil
}

func (c *Client) DeleteGroup(ctx context.Context, id int64) (bool, error) {
	resp, err := c.call(ctx, request{Op: "delete_group", ID: id})
	if err != nil {
		return false, err
	}
	return resp.Done, nil
}

func (c *Client) ListGroupItems(ctx context.Context, groupID int64) ([]Item, error) {
	resp, err := c.call(ctx, request{Op: "list_group_items", GroupID: groupID})
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) AddGroupItem(ctx context.Context, groupID int64, text string) (bool, error) {
	resp, err := c.call(ctx, request{Op: "add_group_item", GroupID: groupID, Text: text})
	if err != nil {
		return false, err
	}
	return resp.Done, nil
}

func (c *Client) DeleteGroupItem(ctx context.Context, id int64) (bool, error) {
	resp, err := c.call(ctx, request{Op: "delete_group_item", ID: id})
	if err != nil {
		return false, err
	}
	return resp.Done, nil
}

func (c *Client) RegisterUser(ctx context.Context, user User) error {
	_, err := c.call(ctx, request{Op: "register_user", User: &user})
	return err
}

// Notifications subscribes to fired reminders over a dedicated
// connection. The connection is redialed with a fixed backoff until ctx
// is done; undecodable notification lines are logged and skipped.
func (c *Client) Notifications(ctx context.Context) (<-chan Notification, error) {
	out := make(chan Notification)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			if err := c.streamNotifications(ctx, out); err != nil && ctx.Err() == nil {
				logger.Warn(ctx, "engine", "notify.stream",
					slog.String("err", err.Error()),
				)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(redialBackoff):
			}
		}
	}()
	return out, nil
}

func (c *Client) streamNotifications(ctx context.Context, out chan<- Notification) error {
	conn, err := c.dialer.DialContext(ctx, "unix", c.address)
	if err != nil {
		return fmt.Errorf("engine: dial %s: %w", c.address, err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := json.NewEncoder(conn).Encode(request{Op: "subscribe"}); err != nil {
		return fmt.Errorf("engine: subscribe: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var resp response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			logger.Warn(ctx, "engine", "notify.decode",
				slog.String("err", err.Error()),
				slog.String("payload", logger.SanitizeLimit(scanner.Text(), 256)),
			)
			continue
		}
		reply, err := DecodeReply(resp.Reply)
		if err != nil {
			logger.Warn(ctx, "engine", "notify.decode",
				slog.String("err", err.Error()),
				slog.String("payload", logger.SanitizeLimit(string(resp.Reply), 256)),
			)
			continue
		}
		select {
		case out <- Notification{ChatID: resp.ChatID, Reply: reply}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}
