package cart

// Line is one cart entry. Lines are keyed by the (Name, SellerID) pair, so
// adding the same listing twice bumps the quantity instead of duplicating it.
type Line struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	SellerID int     `json:"sellerId"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Cart struct {
	Lines []Line `json:"lines"`
}

func (c *Cart) find(name string, sellerID int) int {
	for i, l := range c.Lines {
		if l.Name == name && l.SellerID == sellerID {
			return i
		}
	}
	return -1
}

// Add merges the line into the cart, summing quantities on a key match.
func (c *Cart) Add(line Line) {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	if i := c.find(line.Name, line.SellerID); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		return
	}
	c.Lines = append(c.Lines, line)
}

func (c *Cart) Remove(name string, sellerID int) {
	if i := c.find(name, sellerID); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
}

// UpdateQuantity sets the quantity for a line; zero or below removes it.
func (c *Cart) UpdateQuantity(name string, sellerID, quantity int) {
	i := c.find(name, sellerID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return
	}
	c.Lines[i].Quantity = quantity
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.Lines {
		total += l.Price * float64(l.Quantity)
	}
	return total
}
