package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// SiteInfo is the public summary of a Discourse site.
type SiteInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url,omitempty"`
}

// CurrentUser is the user an API key acts as.
type CurrentUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Admin    bool   `json:"admin"`
}

// GetSiteInfo returns /site/basic-info.json. It needs no credentials.
func (c *Client) GetSiteInfo(ctx context.Context) (*SiteInfo, error) {
	body, err := c.Get(ctx, "/site/basic-info.json")
	if err != nil {
		return nil, err
	}

	var info SiteInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse site info response: %w", err)
	}
	return &info, nil
}

// GetCurrentUser returns the user behind the API key.
func (c *Client) GetCurrentUser(ctx context.Context) (*CurrentUser, error) {
	body, err := c.Get(ctx, "/session/current.json")
	if err != nil {
		return nil, err
	}

	var result struct {
		CurrentUser *CurrentUser `json:"current_user"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	if result.CurrentUser == nil {
		return nil, fmt.Errorf("no current user in session response")
	}
	return result.CurrentUser, nil
}
