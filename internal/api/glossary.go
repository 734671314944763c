package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) ListGlossaries(ctx context.Context) ([]Glossary, error) {
	var resp glossaryList
	if err := c.do(ctx, http.MethodGet, "/glossaries", nil, &resp); err != nil {
		return nil, fmt.Errorf("list glossaries: %w", err)
	}
	return resp.Glossaries, nil
}

// GetGlossary returns a glossary including its terms.
func (c *Client) GetGlossary(ctx context.Context, id string) (*Glossary, error) {
	var g Glossary
	if err := c.do(ctx, http.MethodGet, glossaryPath(id), nil, &g); err != nil {
		return nil, fmt.Errorf("get glossary %s: %w", id, err)
	}
	return &g, nil
}

// CreateGlossary creates a glossary; the ID is assigned by the service.
func (c *Client) CreateGlossary(ctx context.Context, g Glossary) (*Glossary, error) {
	g.ID = ""
	var created Glossary
	if err := c.do(ctx, http.MethodPost, "/glossaries", g, &created); err != nil {
		return nil, fmt.Errorf("create glossary: %w", err)
	}
	return &created, nil
}

func (c *Client) AddGlossaryTerms(ctx context.Context, id string, terms []GlossaryTerm) (*Glossary, error) {
	var g Glossary
	if err := c.do(ctx, http.MethodPost, glossaryPath(id)+"/terms", addTermsRequest{Terms: terms}, &g); err != nil {
		return nil, fmt.Errorf("add terms to glossary %s: %w", id, err)
	}
	return &g, nil
}

func (c *Client) DeleteGlossary(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, glossaryPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete glossary %s: %w", id, err)
	}
	return nil
}

func glossaryPath(id string) string {
	return "/glossaries/" + url.PathEscape(id)
}
