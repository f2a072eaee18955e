// Package remote implements the browser port against the extension-side
// HTTP bridge. The bridge exposes the live windows, tabs, and tab groups of
// one browser profile as a small REST surface.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tabvault/tabvault/server/internal/browser"
)

type Client struct {
	http *resty.Client
}

var _ browser.Browser = (*Client)(nil)

// New creates a bridge client. baseURL points at the extension bridge, e.g.
// http://localhost:9223.
func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	return &Client{http: c}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return fmt.Errorf("bridge request: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.Unmarshal(resp.Body(), out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post(path)
	if err != nil {
		return fmt.Errorf("bridge request: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Body(), out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	resp, err := c.http.R().SetContext(ctx).Delete(path)
	if err != nil {
		return fmt.Errorf("bridge request: %w", err)
	}
	return checkStatus(resp)
}

func checkStatus(resp *resty.Response) error {
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return browser.ErrNotFound
	case resp.StatusCode() >= 300:
		return fmt.Errorf("bridge status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (c *Client) Windows(ctx context.Context) ([]browser.Window, error) {
	var out []browser.Window
	if err := c.get(ctx, "/windows", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Window(ctx context.Context, windowID int) (*browser.Window, error) {
	var out browser.Window
	if err := c.get(ctx, fmt.Sprintf("/windows/%d", windowID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateWindow(ctx context.Context, req browser.CreateWindowRequest) (*browser.Window, error) {
	var out browser.Window
	if err := c.post(ctx, "/windows", &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CloseWindow(ctx context.Context, windowID int) error {
	return c.delete(ctx, fmt.Sprintf("/windows/%d", windowID))
}

func (c *Client) Tabs(ctx context.Context, windowID int) ([]browser.Tab, error) {
	var out []browser.Tab
	if err := c.get(ctx, fmt.Sprintf("/windows/%d/tabs", windowID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AllTabs(ctx context.Context) ([]browser.Tab, error) {
	var out []browser.Tab
	if err := c.get(ctx, "/tabs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Tab(ctx context.Context, tabID int) (*browser.Tab, error) {
	var out browser.Tab
	if err := c.get(ctx, fmt.Sprintf("/tabs/%d", tabID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTab(ctx context.Context, req browser.CreateTabRequest) (*browser.Tab, error) {
	var out browser.Tab
	if err := c.post(ctx, "/tabs", &req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveTab(ctx context.Context, tabID int) error {
	return c.delete(ctx, fmt.Sprintf("/tabs/%d", tabID))
}

func (c *Client) Groups(ctx context.Context, windowID int) ([]browser.TabGroup, error) {
	var out []browser.TabGroup
	if err := c.get(ctx, fmt.Sprintf("/windows/%d/groups", windowID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

type groupRequest struct {
	TabIDs    []int  `json:"tabIds"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	Collapsed bool   `json:"collapsed"`
}

type groupResponse struct {
	GroupID int `json:"groupId"`
}

func (c *Client) GroupTabs(ctx context.Context, windowID int, tabIDs []int, title, color string, collapsed bool) (int, error) {
	var out groupResponse
	req := groupRequest{TabIDs: tabIDs, Title: title, Color: color, Collapsed: collapsed}
	if err := c.post(ctx, fmt.Sprintf("/windows/%d/groups", windowID), &req, &out); err != nil {
		return 0, err
	}
	return out.GroupID, nil
}
