package teleconsult

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/curaflow/appointment-platform/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// RoomsClient is a lightweight client for the video provider's rooms API.
// Rooms are addressed by a unique name derived from the appointment id, so
// create-or-get is safe to retry.
type RoomsClient struct {
	baseURL    string
	apiKey     string
	joinBase   string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewRoomsClient creates a rooms client. joinBase is the public base URL
// participants open, e.g. "https://video.curaflow.health".
func NewRoomsClient(baseURL, apiKey, joinBase string, logger *logging.Logger) *RoomsClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &RoomsClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		joinBase: strings.TrimRight(joinBase, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

type roomPayload struct {
	SID        string `json:"sid"`
	UniqueName string `json:"unique_name"`
	Status     string `json:"status"`
}

type listRoomsResponse struct {
	Rooms []roomPayload `json:"rooms"`
}

// CreateOrGetRoom returns the join link for the appointment's room,
// creating the room on first use.
func (c *RoomsClient) CreateOrGetRoom(ctx context.Context, appointmentID uuid.UUID) (string, error) {
	name := roomName(appointmentID)

	existing, err := c.findRoom(ctx, name)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return c.joinLink(existing.SID), nil
	}

	created, err := c.createRoom(ctx, name)
	if err != nil {
		return "", err
	}
	c.logger.Info("video room created", "appointment_id", appointmentID, "room_sid", created.SID)
	return c.joinLink(created.SID), nil
}

func (c *RoomsClient) findRoom(ctx context.Context, name string) (*roomPayload, error) {
	endpoint := fmt.Sprintf("%s/v1/rooms?unique_name=%s", c.baseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("teleconsult: build list request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("teleconsult: list rooms: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError("list rooms", resp)
	}

	var out listRoomsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("teleconsult: decode room list: %w", err)
	}
	if len(out.Rooms) == 0 {
		return nil, nil
	}
	return &out.Rooms[0], nil
}

func (c *RoomsClient) createRoom(ctx context.Context, name string) (*roomPayload, error) {
	body, err := json.Marshal(map[string]string{
		"unique_name": name,
		"type":        "group",
	})
	if err != nil {
		return nil, fmt.Errorf("teleconsult: encode create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/rooms", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("teleconsult: build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("teleconsult: create room: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.apiError("create room", resp)
	}

	var out roomPayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("teleconsult: decode created room: %w", err)
	}
	return &out, nil
}

func (c *RoomsClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *RoomsClient) joinLink(sid string) string {
	return c.joinBase + "/" + sid
}

func (c *RoomsClient) apiError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("teleconsult: %s: unexpected status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func roomName(appointmentID uuid.UUID) string {
	return "teleconsultation-" + appointmentID.String()
}
