package entity

// Taxonomy is the ordered category tree offered during a dialog:
// expense item -> expense group -> partner.
type Taxonomy struct {
	Categories []Category `json:"categories" yaml:"categories"`
}

// Category is a top-level expense item.
type Category struct {
	Name   string  `json:"name" yaml:"name"`
	Groups []Group `json:"groups" yaml:"groups"`
}

// Group is a sub-group of a category with its partners.
type Group struct {
	Name     string   `json:"name" yaml:"name"`
	Partners []string `json:"partners" yaml:"partners"`
}

// CategoryNames lists the top-level names in order.
func (t Taxonomy) CategoryNames() []string {
	names := make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		names = append(names, c.Name)
	}
	return names
}

// GroupNames lists the sub-group names of a category in order.
func (c Category) GroupNames() []string {
	names := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		names = append(names, g.Name)
	}
	return names
}

// Add inserts a row (item, group, partner), keeping first-seen order and skipping duplicates.
func (t *Taxonomy) Add(item, group, partner string) {
	ci := -1
	for i := range t.Categories {
		if t.Categories[i].Name == item {
			ci = i
			break
		}
	}
	if ci < 0 {
		t.Categories = append(t.Categories, Category{Name: item})
		ci = len(t.Categories) - 1
	}

	cat := &t.Categories[ci]
	gi := -1
	for i := range cat.Groups {
		if cat.Groups[i].Name == group {
			gi = i
			break
		}
	}
	if gi < 0 {
		cat.Groups = append(cat.Groups, Group{Name: group})
		gi = len(cat.Groups) - 1
	}

	grp := &cat.Groups[gi]
	for _, p := range grp.Partners {
		if p == partner {
			return
		}
	}
	grp.Partners = append(grp.Partners, partner)
}

// Prune drops groups without partners and categories without groups so
// every offered choice leads somewhere.
func (t Taxonomy) Prune() Taxonomy {
	out := Taxonomy{}
	for _, c := range t.Categories {
		kept := Category{Name: c.Name}
		for _, g := range c.Groups {
			if len(g.Partners) > 0 {
				kept.Groups = append(kept.Groups, g)
			}
		}
		if len(kept.Groups) > 0 {
			out.Categories = append(out.Categories, kept)
		}
	}
	return out
}
