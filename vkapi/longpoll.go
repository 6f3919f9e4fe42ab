package vkapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Event is one long-poll update; Object stays raw until the consumer
// normalizes it.
type Event struct {
	Type   string          `json:"type"`
	Object json.RawMessage `json:"object"`
}

const EventMessageNew = "message_new"

// MessageNewObject is the payload of a message_new event.
type MessageNewObject struct {
	Message *MessagePayload `json:"message"`
}

type MessagePayload struct {
	ID                    int64           `json:"id"`
	PeerID                int64           `json:"peer_id"`
	FromID                int64           `json:"from_id"`
	Text                  string          `json:"text"`
	ConversationMessageID int64           `json:"conversation_message_id"`
	ReplyMessage          *MessagePayload `json:"reply_message"`
	Action                *MessageAction  `json:"action"`
}

type MessageAction struct {
	Type     string `json:"type"`
	MemberID int64  `json:"member_id"`
}

// LongPoll is a group long-poll session. TS advances with every successful
// poll and can be persisted externally to resume after a restart.
type LongPoll struct {
	c       *Client
	GroupID int64
	Server  string
	Key     string
	TS      string
	Wait    int
}

// NewLongPoll fetches long-poll server credentials for the group.
func (c *Client) NewLongPoll(ctx context.Context, groupID int64) (*LongPoll, error) {
	lp := &LongPoll{c: c, GroupID: groupID, Wait: 25}
	if err := lp.refresh(ctx); err != nil {
		return nil, err
	}
	return lp, nil
}

func (lp *LongPoll) refresh(ctx context.Context) error {
	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(lp.GroupID, 10))
	var res struct {
		Server string `json:"server"`
		Key    string `json:"key"`
		TS     string `json:"ts"`
	}
	if err := lp.c.call(ctx, "groups.getLongPollServer", params, &res); err != nil {
		return fmt.Errorf("fetching long-poll server: %w", err)
	}
	lp.Server = res.Server
	lp.Key = res.Key
	// keep a resumed cursor if one was set before the refresh
	if lp.TS == "" {
		lp.TS = res.TS
	}
	return nil
}

// Poll performs one long-poll request and returns the batch of updates.
// Protocol "failed" responses are handled in place: stale TS is fast-
// forwarded, expired keys re-fetched.
func (lp *LongPoll) Poll(ctx context.Context) ([]Event, error) {
	q := url.Values{}
	q.Set("act", "a_check")
	q.Set("key", lp.Key)
	q.Set("ts", lp.TS)
	q.Set("wait", strconv.Itoa(lp.Wait))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lp.Server+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := lp.c.C.Do(req)
	if err != nil {
		return nil, fmt.Errorf("long-poll request: %w", err)
	}
	defer resp.Body.Close()
	var res struct {
		Failed  int             `json:"failed"`
		TS      json.RawMessage `json:"ts"`
		Updates []Event         `json:"updates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding long-poll response: %w", err)
	}
	switch res.Failed {
	case 0:
		lp.TS = rawString(res.TS)
		return res.Updates, nil
	case 1:
		// history is out of date; fast-forward
		lp.TS = rawString(res.TS)
		return nil, nil
	default:
		// key expired or info lost; re-fetch credentials
		lp.TS = ""
		if err := lp.refresh(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

// rawString unquotes a ts value that the API returns as either a JSON
// string or a bare number.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
