// Package fields describes the fields of a property listing and how partial,
// turn-by-turn updates are coerced and merged into a draft.
package fields

// Name identifies a property field. Names match the storage column names.
type Name string

const (
	Title        Name = "title"
	Type         Name = "property_type"
	City         Name = "city"
	Neighborhood Name = "neighborhood"
	Address      Name = "address"
	Area         Name = "area"
	Price        Name = "price"
	Bedrooms     Name = "bedrooms"
	Floor        Name = "floor"
	YearBuilt    Name = "year_built"
	Parking      Name = "parking"
	Elevator     Name = "elevator"
	Storage      Name = "storage"
	Description  Name = "description"
)

// Canonical property type values.
const (
	TypeApartment = "apartment"
	TypeHouse     = "house"
	TypeVilla     = "villa"
	TypeLand      = "land"
	TypeOther     = "other"
)

// All lists every field in display order.
var All = []Name{
	Title, Type, City, Neighborhood, Address,
	Area, Price, Bedrooms, Floor, YearBuilt,
	Parking, Elevator, Storage, Description,
}

// Required lists the fields a draft needs before it can be saved, in the
// order they are asked for.
var Required = []Name{Title, Type, City, Area, Price}

// Kind is the value type carried by a field.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindInteger
	KindBool
)

// Kind reports the value type of the field.
func (n Name) Kind() Kind {
	switch n {
	case Area, Price:
		return KindNumber
	case Bedrooms, Floor, YearBuilt:
		return KindInteger
	case Parking, Elevator, Storage:
		return KindBool
	}
	return KindText
}

// IsRequired reports whether the field must be present before saving.
func (n Name) IsRequired() bool {
	for _, r := range Required {
		if r == n {
			return true
		}
	}
	return false
}

// Valid reports whether n is a known field.
func (n Name) Valid() bool {
	_, ok := labels[n]
	return ok
}

// Label returns a human readable field name.
func (n Name) Label() string {
	if l, ok := labels[n]; ok {
		return l
	}
	return string(n)
}

var labels = map[Name]string{
	Title:        "Title",
	Type:         "Property type",
	City:         "City",
	Neighborhood: "Neighborhood",
	Address:      "Address",
	Area:         "Area",
	Price:        "Price",
	Bedrooms:     "Bedrooms",
	Floor:        "Floor",
	YearBuilt:    "Year built",
	Parking:      "Parking",
	Elevator:     "Elevator",
	Storage:      "Storage",
	Description:  "Description",
}
