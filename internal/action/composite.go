package action

import "fmt"

// Composite applies its children in order and undoes them in reverse. When a
// child fails, the children already handled are rolled back so the scene is
// left as it was.
type Composite struct {
	children []Action
}

func NewComposite(children ...Action) *Composite {
	return &Composite{children: append([]Action(nil), children...)}
}

func (c *Composite) Kind() Kind { return KindComposite }
func (c *Composite) sealed()    {}

// AddFirst prepends a child.
func (c *Composite) AddFirst(a Action) {
	c.children = append([]Action{a}, c.children...)
}

// AddLast appends a child.
func (c *Composite) AddLast(a Action) {
	c.children = append(c.children, a)
}

// Children returns the children in apply order.
func (c *Composite) Children() []Action {
	return append([]Action(nil), c.children...)
}

// Len returns the number of children.
func (c *Composite) Len() int { return len(c.children) }

func (c *Composite) ShouldKeep() bool {
	for _, a := range c.children {
		if a.ShouldKeep() {
			return true
		}
	}
	return false
}

func (c *Composite) Apply(s *Scene) error {
	for i, a := range c.children {
		if err := a.Apply(s); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.children[j].Undo(s)
			}
			return fmt.Errorf("composite step %d (%v): %w", i, a.Kind(), err)
		}
	}
	return nil
}

func (c *Composite) Undo(s *Scene) error {
	for i := len(c.children) - 1; i >= 0; i-- {
		if err := c.children[i].Undo(s); err != nil {
			for j := i + 1; j < len(c.children); j++ {
				_ = c.children[j].Apply(s)
			}
			return fmt.Errorf("undo composite step %d (%v): %w", i, c.children[i].Kind(), err)
		}
	}
	return nil
}
