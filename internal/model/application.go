package model

const (
	TypeApplication = "application"
	TypeComponent   = "component"
)

// Component is a deployable unit of an application.
type Component struct {
	ID       string     `json:"id"`
	Type     string     `json:"type,omitempty"`
	Tags     Tags       `json:"tags,omitempty"`
	Provides []Port     `json:"provides,omitempty"`
	Consumes []string   `json:"consumes,omitempty"`
	Commands CommandMap `json:"commands,omitempty"`
}

// HasCommand reports whether the component declares a command for key.
func (c *Component) HasCommand(key CommandKey) bool {
	_, ok := c.Commands.Get(key)
	return ok
}

// HasService reports whether the component declares at least one command
// with steps, i.e. whether there is anything an executor could run.
func (c *Component) HasService() bool {
	for _, cmd := range c.Commands {
		if len(cmd.Steps) > 0 {
			return true
		}
	}
	return false
}

// Application is the root of a topology.
type Application struct {
	ID         string      `json:"id"`
	Type       string      `json:"type,omitempty"`
	Tags       Tags        `json:"tags,omitempty"`
	Provides   []Port      `json:"provides,omitempty"`
	Consumes   []string    `json:"consumes,omitempty"`
	Commands   CommandMap  `json:"commands,omitempty"`
	Components []Component `json:"components"`
}

// NewApplication returns an empty topology.
func NewApplication(id string) *Application {
	return &Application{
		ID:         id,
		Type:       TypeApplication,
		Components: []Component{},
	}
}

// DefaultApplicationID names the empty topology.
const DefaultApplicationID = "application"

// EmptyApplication returns the topology used after a clear or when nothing
// usable was cached.
func EmptyApplication() *Application {
	return NewApplication(DefaultApplicationID)
}

// Component returns the component with the given id.
func (a *Application) Component(id string) (*Component, bool) {
	if a == nil {
		return nil, false
	}
	for i := range a.Components {
		if a.Components[i].ID == id {
			return &a.Components[i], true
		}
	}
	return nil, false
}

// ComponentIDs returns the component ids in declaration order.
func (a *Application) ComponentIDs() []string {
	if a == nil {
		return nil
	}
	ids := make([]string, 0, len(a.Components))
	for _, c := range a.Components {
		ids = append(ids, c.ID)
	}
	return ids
}

// IsEmpty reports whether the topology has no components.
func (a *Application) IsEmpty() bool {
	return a == nil || len(a.Components) == 0
}
