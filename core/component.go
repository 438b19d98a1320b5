package core

// Component is a node in the persistent component tree.
type Component struct {
	Id       string                 `json:"id"`
	Tag      string                 `json:"tag,omitempty"`
	Attrs    map[string]interface{} `json:"attrs,omitempty"`
	Text     string                 `json:"text,omitempty"`
	Children []*Component           `json:"children,omitempty"`

	// InitialState records whether the component was built under
	// the initial-state flag, so its state should be captured in
	// full.
	InitialState bool `json:"initialState,omitempty"`

	// RestoreFully and RefreshDynamically are notifications
	// written by control-flow tags.
	RestoreFully       bool `json:"restoreFully,omitempty"`
	RefreshDynamically bool `json:"refreshDynamically,omitempty"`
}

// NewComponent makes a component with no children.
func NewComponent(id, tag string) *Component {
	return &Component{
		Id:  id,
		Tag: tag,
	}
}

// Add appends a child and returns it.
func (c *Component) Add(child *Component) *Component {
	c.Children = append(c.Children, child)
	return child
}

// Walk calls f on c and then on its descendants, depth first.  Stops
// at the first error.
func (c *Component) Walk(f func(c *Component) error) error {
	if err := f(c); err != nil {
		return err
	}
	for _, child := range c.Children {
		if err := child.Walk(f); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the component with the given id, or nil.
func (c *Component) Find(id string) *Component {
	var found *Component
	c.Walk(func(c *Component) error {
		if c.Id == id {
			found = c
			return errFound
		}
		return nil
	})
	return found
}

// Ids returns the ids of c and its descendants in depth-first order.
func (c *Component) Ids() []string {
	var acc []string
	c.Walk(func(c *Component) error {
		acc = append(acc, c.Id)
		return nil
	})
	return acc
}

type stop string

func (s stop) Error() string { return string(s) }

var errFound = stop("found")
