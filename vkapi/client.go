// Package vkapi is a minimal VK bot API client covering the platform
// capabilities the moderation engine consumes: messaging, member management,
// identifier resolution, document upload, and group long-poll ingestion.
package vkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/chatwarden/chatwarden/util"
)

const (
	DefaultHost = "https://api.vk.com"
	Version     = "5.199"

	// GroupChatBase: peer identifiers at or above this value are group
	// conversations; chat_id-based methods take peer - GroupChatBase.
	GroupChatBase int64 = 2_000_000_000
)

type Client struct {
	Host  string
	Token string
	C     *http.Client

	// display-name cache; profile names are fine to cache briefly, unlike
	// moderation state
	names *expirable.LRU[int64, string]
}

func NewClient(token string) *Client {
	return &Client{
		Host:  DefaultHost,
		Token: token,
		C:     util.RobustHTTPClient(),
		names: expirable.NewLRU[int64, string](10_000, nil, time.Hour),
	}
}

// APIError is a VK method-level error (HTTP 200 with an error payload).
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

type apiEnvelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("access_token", c.Token)
	params.Set("v", Version)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/method/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.C.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: unexpected status %d", method, resp.StatusCode)
	}
	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if env.Error != nil {
		return env.Error
	}
	if out != nil {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return fmt.Errorf("decoding %s payload: %w", method, err)
		}
	}
	return nil
}

func (c *Client) SendText(ctx context.Context, destination int64, text string) error {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(destination, 10))
	params.Set("message", text)
	params.Set("random_id", strconv.Itoa(rand.Int()))
	return c.call(ctx, "messages.send", params, nil)
}

func (c *Client) SendWithAttachment(ctx context.Context, destination int64, attachments []string, text string) error {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(destination, 10))
	params.Set("message", text)
	params.Set("attachment", strings.Join(attachments, ","))
	params.Set("random_id", strconv.Itoa(rand.Int()))
	return c.call(ctx, "messages.send", params, nil)
}

func (c *Client) DeleteMessage(ctx context.Context, conversation int64, conversationMessageID int64) error {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(conversation, 10))
	params.Set("cmids", strconv.FormatInt(conversationMessageID, 10))
	params.Set("delete_for_all", "1")
	return c.call(ctx, "messages.delete", params, nil)
}

func (c *Client) DeleteByMessageID(ctx context.Context, messageID int64) error {
	params := url.Values{}
	params.Set("message_ids", strconv.FormatInt(messageID, 10))
	params.Set("delete_for_all", "1")
	return c.call(ctx, "messages.delete", params, nil)
}

func (c *Client) RemoveMember(ctx context.Context, conversation int64, user int64) error {
	if conversation < GroupChatBase {
		return fmt.Errorf("peer %d is not a group conversation", conversation)
	}
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(conversation-GroupChatBase, 10))
	params.Set("member_id", strconv.FormatInt(user, 10))
	return c.call(ctx, "messages.removeChatUser", params, nil)
}

func (c *Client) AddMember(ctx context.Context, conversation int64, user int64) error {
	if conversation < GroupChatBase {
		return fmt.Errorf("peer %d is not a group conversation", conversation)
	}
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(conversation-GroupChatBase, 10))
	params.Set("user_id", strconv.FormatInt(user, 10))
	return c.call(ctx, "messages.addChatUser", params, nil)
}

type userProfile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (c *Client) ResolveProfile(ctx context.Context, user int64) (string, error) {
	if name, ok := c.names.Get(user); ok {
		return name, nil
	}
	params := url.Values{}
	params.Set("user_ids", strconv.FormatInt(user, 10))
	var users []userProfile
	if err := c.call(ctx, "users.get", params, &users); err != nil {
		return strconv.FormatInt(user, 10), err
	}
	if len(users) == 0 {
		return strconv.FormatInt(user, 10), nil
	}
	name := strings.TrimSpace(users[0].FirstName + " " + users[0].LastName)
	if name == "" {
		name = strconv.FormatInt(user, 10)
	}
	c.names.Add(user, name)
	return name, nil
}

func (c *Client) ResolveHandle(ctx context.Context, handleOrURL string) (int64, error) {
	screen := strings.TrimPrefix(handleOrURL, "@")
	if strings.Contains(screen, "/") {
		screen = strings.TrimSuffix(screen, "/")
		screen = screen[strings.LastIndex(screen, "/")+1:]
	}
	params := url.Values{}
	params.Set("screen_name", screen)
	var res struct {
		Type     string `json:"type"`
		ObjectID int64  `json:"object_id"`
	}
	if err := c.call(ctx, "utils.resolveScreenName", params, &res); err == nil && res.ObjectID != 0 {
		return res.ObjectID, nil
	}
	// fall back to users.get, which also accepts screen names
	params = url.Values{}
	params.Set("user_ids", screen)
	var users []userProfile
	if err := c.call(ctx, "users.get", params, &users); err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, fmt.Errorf("could not resolve %q", handleOrURL)
	}
	return users[0].ID, nil
}

// UploadDocument pushes a local file through the three-step VK document
// upload flow and returns a "doc<owner>_<id>" attachment reference.
func (c *Client) UploadDocument(ctx context.Context, destination int64, path, title string) (string, error) {
	params := url.Values{}
	params.Set("peer_id", strconv.FormatInt(destination, 10))
	params.Set("type", "doc")
	var server struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.call(ctx, "docs.getMessagesUploadServer", params, &server); err != nil {
		return "", fmt.Errorf("requesting upload server: %w", err)
	}

	fileField, err := multipartFile(path)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.UploadURL, fileField.body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", fileField.contentType)
	resp, err := c.C.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading document: %w", err)
	}
	defer resp.Body.Close()
	var uploaded struct {
		File string `json:"file"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("decoding upload response: %w", err)
	}

	params = url.Values{}
	params.Set("file", uploaded.File)
	params.Set("title", title)
	var saved struct {
		Doc struct {
			ID      int64 `json:"id"`
			OwnerID int64 `json:"owner_id"`
		} `json:"doc"`
	}
	if err := c.call(ctx, "docs.save", params, &saved); err != nil {
		return "", fmt.Errorf("saving document: %w", err)
	}
	return fmt.Sprintf("doc%d_%d", saved.Doc.OwnerID, saved.Doc.ID), nil
}

type multipartBody struct {
	body        *bytes.Buffer
	contentType string
}

func multipartFile(path string) (*multipartBody, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &multipartBody{body: &buf, contentType: w.FormDataContentType()}, nil
}
