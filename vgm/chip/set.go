package chip

// Set holds the two possible instances of one family.
type Set [2]Chip

// Get selects the instance for a chip id: 0 is the first chip, anything
// else the second.
func (s *Set) Get(id uint8) Chip {
	if id != 0 {
		return s[1]
	}
	return s[0]
}

// Rack holds a Set for every family.
type Rack struct {
	sets [FamilyCount]Set
}

// NewRack builds both instances of every family with factory. A nil factory
// builds Null chips.
func NewRack(factory Factory) *Rack {
	if factory == nil {
		factory = NullFactory
	}
	r := &Rack{}
	for _, f := range Families() {
		for id := range 2 {
			c := factory(f, id)
			if c == nil {
				c = &Null{}
			}
			r.sets[f][id] = c
		}
	}
	return r
}

// Set returns the instances of family f, nil for unknown families.
func (r *Rack) Set(f Family) *Set {
	if !f.Valid() {
		return nil
	}
	return &r.sets[f]
}

// Chip returns instance id of family f, nil for unknown families.
func (r *Rack) Chip(f Family, id uint8) Chip {
	s := r.Set(f)
	if s == nil {
		return nil
	}
	return s.Get(id)
}

// Enabled calls fn for every enabled chip, families in id order.
func (r *Rack) Enabled(fn func(f Family, id int, c Chip)) {
	for f := range r.sets {
		for id, c := range r.sets[f] {
			if c.Enabled() {
				fn(Family(f), id, c)
			}
		}
	}
}

// Any reports whether an enabled chip of the given domain exists.
func (r *Rack) Any(d Domain) bool {
	found := false
	r.Enabled(func(f Family, _ int, _ Chip) {
		if f.Info().Domain == d {
			found = true
		}
	})
	return found
}
