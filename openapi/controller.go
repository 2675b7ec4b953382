package openapi

// namedRoute pairs a route with its name inside a controller. The name is the
// default operationId of the route.
type namedRoute struct {
	name  string
	route *Route
}

// Controller groups routes that share a document tag and an optional path
// prefix. Routes are processed in the order they were added, which keeps the
// generated document deterministic.
type Controller struct {
	tag         string
	description string
	prefix      string
	routes      []namedRoute
}

// NewController creates a controller for the given tag.
func NewController(tag string) *Controller {
	return &Controller{tag: tag}
}

// Description sets the tag description shown in the document.
func (c *Controller) Description(desc string) *Controller {
	c.description = desc
	return c
}

// Prefix sets the path prefix prepended to every route of the controller.
func (c *Controller) Prefix(prefix string) *Controller {
	c.prefix = prefix
	return c
}

// Handle adds a named route. Adding a name twice replaces the earlier route
// in place.
func (c *Controller) Handle(name string, route *Route) *Controller {
	for i := range c.routes {
		if c.routes[i].name == name {
			c.routes[i].route = route
			return c
		}
	}
	c.routes = append(c.routes, namedRoute{name: name, route: route})
	return c
}

// Tag returns the controller tag.
func (c *Controller) Tag() string {
	return c.tag
}

// RouteNames returns the route names in processing order.
func (c *Controller) RouteNames() []string {
	names := make([]string, len(c.routes))
	for i, nr := range c.routes {
		names[i] = nr.name
	}
	return names
}
