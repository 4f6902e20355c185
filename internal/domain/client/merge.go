package client

// FillMissing copies src's populated personal fields into c wherever c has
// none, and reports whether anything changed. Populated values are never
// overwritten: the birth date is replaced only when it is the placeholder and
// the full name only when it is empty or repeats the ID number.
func (c *Client) FillMissing(src *Client) bool {
	changed := false
	fill := func(dst **string, v *string) {
		if v = CleanText(v); v == nil {
			return
		}
		if *dst == nil || IsNaNLike(**dst) {
			val := *v
			*dst = &val
			changed = true
		}
	}

	fill(&c.FirstName, src.FirstName)
	fill(&c.LastName, src.LastName)
	fill(&c.Gender, src.Gender)
	fill(&c.MaritalStatus, src.MaritalStatus)
	fill(&c.BirthCountry, src.BirthCountry)
	fill(&c.EmployerName, src.EmployerName)
	fill(&c.EmployerHP, src.EmployerHP)
	fill(&c.EmployerAddress, src.EmployerAddress)
	fill(&c.EmployerPhone, src.EmployerPhone)
	fill(&c.Email, src.Email)
	fill(&c.Phone, src.Phone)
	fill(&c.AddressStreet, src.AddressStreet)
	fill(&c.AddressCity, src.AddressCity)
	fill(&c.AddressHouseNumber, src.AddressHouseNumber)
	fill(&c.AddressApartment, src.AddressApartment)
	fill(&c.AddressPostalCode, src.AddressPostalCode)

	if c.HasPlaceholderBirthDate() && !src.HasPlaceholderBirthDate() {
		c.BirthDate = src.BirthDate
		changed = true
	}

	if c.NameIsPlaceholder() {
		name := JoinName(src.FirstName, src.LastName)
		if name == "" {
			name = JoinName(c.FirstName, c.LastName)
		}
		if name != "" && name != c.FullName {
			c.FullName = name
			changed = true
		}
	}
	return changed
}

// Index finds clients by normalized national ID. The first client seen for a
// key wins, matching the unique constraint on the normalized column.
type Index struct {
	byID map[string]*Client
}

// NewIndex indexes the given clients
func NewIndex(clients []Client) *Index {
	idx := &Index{byID: make(map[string]*Client, len(clients))}
	for i := range clients {
		idx.Put(&clients[i])
	}
	return idx
}

// IndexKey is the normalized ID a client is indexed under
func IndexKey(c *Client) string {
	if key := NormalizeIDNumberPtr(c.IDNumber); key != "" {
		return key
	}
	return NormalizeIDNumberPtr(c.IDNumberRaw)
}

// Get returns the client indexed under the normalized form of idNumber
func (x *Index) Get(idNumber string) (*Client, bool) {
	c, ok := x.byID[NormalizeIDNumber(idNumber)]
	return c, ok
}

// Put indexes c unless its key is empty or already taken
func (x *Index) Put(c *Client) {
	key := IndexKey(c)
	if key == "" {
		return
	}
	if _, taken := x.byID[key]; !taken {
		x.byID[key] = c
	}
}
