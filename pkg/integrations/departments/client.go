package departments

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/hierarchy"
	"github.com/matzehuels/orgchart/pkg/integrations"
)

// DefaultBaseURL is where the backend listens in development.
const DefaultBaseURL = "http://localhost:8080"

// CreateRequest is the body of POST /api/departments/create. An empty
// ParentID creates a root department.
type CreateRequest struct {
	Name     string          `json:"name"`
	ParentID hierarchy.ID    `json:"parent_id,omitempty"`
	Flags    hierarchy.Flags `json:"flags"`
}

// UpdateRequest is the body of PUT /api/departments/{id}/update.
type UpdateRequest struct {
	ID       hierarchy.ID    `json:"id"`
	ParentID hierarchy.ID    `json:"parent_id,omitempty"`
	Name     string          `json:"name"`
	Flags    hierarchy.Flags `json:"flags"`
}

// Client talks to one backend.
type Client struct {
	*integrations.Client
	baseURL string
	keyer   cache.Keyer
	logger  *log.Logger
}

// NewClient creates a client for the backend at baseURL (DefaultBaseURL
// if empty). token may be empty for Login. c keeps the last fetched
// hierarchy for offline use and may be nil.
func NewClient(baseURL, token string, c cache.Cache, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	client := &Client{
		Client:  integrations.NewClient(c, nil),
		baseURL: strings.TrimRight(baseURL, "/"),
		keyer:   cache.NewDefaultKeyer(),
		logger:  logger,
	}
	if token != "" {
		client.SetToken(token)
	}
	return client
}

// BaseURL returns the backend URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.SetHeader("Authorization", "Bearer "+token)
}

// Login exchanges credentials for a bearer token. The token is not
// installed on c; call SetToken to use it.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.Do(ctx, http.MethodPost, c.baseURL+"/api/login", body, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New(errors.ErrCodeUnauthorized, "login response carried no token")
	}
	return out.Token, nil
}

// Hierarchy fetches the whole department forest.
func (c *Client) Hierarchy(ctx context.Context) (hierarchy.Forest, error) {
	return c.Fetch(ctx, "")
}

// Search fetches the subtrees whose names match name. A 404 from the
// backend is returned as NOT_FOUND ("no results").
func (c *Client) Search(ctx context.Context, name string) (hierarchy.Forest, error) {
	if err := errors.ValidateSearchQuery(name); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "search query cannot be empty")
	}
	return c.Fetch(ctx, name)
}

// Fetch loads the hierarchy, or the search result for a non-empty query.
// When the backend is unreachable the last good copy for the same query
// is returned and a warning is logged.
func (c *Client) Fetch(ctx context.Context, query string) (hierarchy.Forest, error) {
	endpoint := c.baseURL + "/api/departments/hierarchy/all"
	if query != "" {
		endpoint = c.baseURL + "/api/departments/hierarchy?name=" + url.QueryEscape(query)
	}

	var forest hierarchy.Forest
	stale, err := c.Fallback(ctx, c.keyer.HierarchyKey(c.baseURL, query), cache.TTLHierarchy, &forest, func() error {
		forest = nil
		return c.Do(ctx, http.MethodGet, endpoint, nil, &forest)
	})
	if err != nil {
		if query != "" && errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no results found for %q", query)
		}
		return nil, err
	}
	if stale {
		c.logger.Warn("backend unreachable, showing cached hierarchy", "backend", c.baseURL, "query", query)
	}
	return forest, nil
}

// Create adds a department.
func (c *Client) Create(ctx context.Context, req CreateRequest) error {
	if err := errors.ValidateDepartmentName(req.Name); err != nil {
		return err
	}
	return c.Do(ctx, http.MethodPost, c.baseURL+"/api/departments/create", req, nil)
}

// Update replaces a department's name, parent and flags.
func (c *Client) Update(ctx context.Context, req UpdateRequest) error {
	if req.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "department id is required")
	}
	if err := errors.ValidateDepartmentName(req.Name); err != nil {
		return err
	}
	return c.Do(ctx, http.MethodPut, c.departmentURL(req.ID, "update"), req, nil)
}

// Delete removes a department.
func (c *Client) Delete(ctx context.Context, id hierarchy.ID) error {
	if id == "" {
		return errors.New(errors.ErrCodeInvalidInput, "department id is required")
	}
	return c.Do(ctx, http.MethodDelete, c.departmentURL(id, "delete"), nil, nil)
}

func (c *Client) departmentURL(id hierarchy.ID, action string) string {
	return c.baseURL + "/api/departments/" + url.PathEscape(id.String()) + "/" + action
}
